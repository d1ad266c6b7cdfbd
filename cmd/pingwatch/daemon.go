package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/pingwatch/internal/httpapi"
	"github.com/hamed0406/pingwatch/internal/repo/memory"
	"github.com/hamed0406/pingwatch/internal/scheduler"
)

func newDaemonCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run checks every server.interval and serve the status API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, o)
		},
	}
}

func runDaemon(ctx context.Context, o *options) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDaemon(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a, err := build(cfg, reg)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	store := memory.New(cfg.Server.History)
	loop := scheduler.NewLoop(a.logger, a.coordinator, store, cfg.Server.Interval, cfg.Run.Deadline)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loop.Run(gctx)
		return nil
	})

	if cfg.Server.Addr != "" {
		api := httpapi.NewServer(a.logger, a.targets, store, reg)
		api.APIKeys = cfg.Server.APIKeys
		api.RPS = cfg.Server.RPS
		api.Burst = cfg.Server.Burst
		api.TrustProxy = cfg.Server.TrustProxy

		hs := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			a.logger.Info("api_listen", zap.String("addr", cfg.Server.Addr))
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return hs.Shutdown(sctx)
		})
	}

	a.logger.Info("daemon_started",
		zap.Int("targets", a.targets.Len()),
		zap.Duration("interval", cfg.Server.Interval),
	)
	err = g.Wait()
	a.logger.Info("daemon_stopped", zap.Error(err))
	return err
}
