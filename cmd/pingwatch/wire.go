package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/config"
	"github.com/hamed0406/pingwatch/internal/logging"
	"github.com/hamed0406/pingwatch/internal/metrics"
	"github.com/hamed0406/pingwatch/internal/notify"
	"github.com/hamed0406/pingwatch/internal/probe"
	"github.com/hamed0406/pingwatch/internal/scheduler"
	"github.com/hamed0406/pingwatch/internal/targets"
)

type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	targets     *targets.Set
	resolver    probe.Resolver
	notifier    *notify.Notifier
	coordinator *scheduler.Coordinator
}

func loadConfig(o *options) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// build wires the run pipeline from cfg. reg may be nil, in which case no
// metrics are recorded.
func build(cfg *config.Config, reg prometheus.Registerer) (*app, error) {
	logger, err := logging.NewLogger(logging.Options{
		Dir:     cfg.Log.Dir,
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: logging: %w", config.ErrConfiguration, err)
	}

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	set, err := cfg.TargetSet()
	if err != nil {
		return nil, err
	}

	var resolver probe.Resolver = probe.NewSystemResolver(cfg.Probe.ResolveTimeout)
	if cfg.Probe.Resolver != "" {
		dr, err := probe.NewDNSResolver(cfg.Probe.Resolver, cfg.Probe.ResolveTimeout)
		if err != nil {
			return nil, fmt.Errorf("%w: probe.resolver: %w", config.ErrConfiguration, err)
		}
		resolver = dr
	}

	pinger, err := probe.NewPinger(
		probe.WithTimeout(cfg.Probe.Timeout),
		probe.WithCount(cfg.Probe.Count),
		probe.WithBinary(cfg.Probe.Binary),
		probe.WithResolver(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}

	policy := probe.NewRetryPolicy(pinger, cfg.Retry.Attempts, cfg.Retry.Interval, logger)
	policy.Metrics = m

	var sender notify.Sender = notify.NewMailer(cfg.SMTP).WithLogger(logger)
	if slack := notify.NewSlack(cfg.Slack.Webhook); slack != nil {
		sender = notify.Multi{sender, slack}
	}
	notifier := &notify.Notifier{
		Sender:  sender,
		Subject: cfg.Alert.Subject,
		To:      cfg.Alert.To,
		Cc:      cfg.Alert.Cc,
		Logger:  logger,
		Metrics: m,
	}

	coord := scheduler.NewCoordinator(logger, set, policy, notifier, cfg.Run.Concurrency)
	coord.Metrics = m

	return &app{
		cfg:         cfg,
		logger:      logger,
		targets:     set,
		resolver:    resolver,
		notifier:    notifier,
		coordinator: coord,
	}, nil
}
