package config

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/targets"
)

// EnvPrefix prefixes every environment override, e.g. PINGWATCH_RETRY_ATTEMPTS.
const EnvPrefix = "PINGWATCH"

const DefaultSubject = "[ALERT] - Ping Failure Notification"

// ErrConfiguration wraps every problem found while loading or validating.
var ErrConfiguration = errors.New("configuration error")

// TLS modes for SMTP submission.
const (
	TLSNone     = "none"
	TLSStartTLS = "starttls"
	TLSImplicit = "implicit"
)

type Retry struct {
	Attempts int           `mapstructure:"attempts"` // >= 1
	Interval time.Duration `mapstructure:"interval"` // >= 0
}

type Probe struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	Count          int           `mapstructure:"count"`
	Binary         string        `mapstructure:"binary"`
	Resolver       string        `mapstructure:"resolver"` // empty uses the system resolver
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout"`
}

type Run struct {
	Concurrency int           `mapstructure:"concurrency"`
	Deadline    time.Duration `mapstructure:"deadline"`
}

type Alert struct {
	Subject string   `mapstructure:"subject"`
	To      string   `mapstructure:"to"`
	Cc      []string `mapstructure:"cc"`
}

type SMTP struct {
	Addr     string        `mapstructure:"addr"`
	From     string        `mapstructure:"from"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	TLS      string        `mapstructure:"tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type Slack struct {
	Webhook string `mapstructure:"webhook"`
}

type Log struct {
	Dir     string `mapstructure:"dir"` // empty disables the log file
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// Server configures daemon mode.
type Server struct {
	Addr     string        `mapstructure:"addr"` // empty disables the status API
	Interval time.Duration `mapstructure:"interval"`
	APIKeys  []string      `mapstructure:"api_keys"`
	RPS      float64       `mapstructure:"rps"`
	Burst    int           `mapstructure:"burst"`
	History  int           `mapstructure:"history"`

	// TrustProxy takes the client IP from X-Real-IP/X-Forwarded-For. Only
	// enable it behind a reverse proxy that sets those headers.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

type Config struct {
	Targets     []domain.Target `mapstructure:"targets"`
	TargetsFile string          `mapstructure:"targets_file"`
	Retry       Retry           `mapstructure:"retry"`
	Probe       Probe           `mapstructure:"probe"`
	Run         Run             `mapstructure:"run"`
	Alert       Alert           `mapstructure:"alert"`
	SMTP        SMTP            `mapstructure:"smtp"`
	Slack       Slack           `mapstructure:"slack"`
	Log         Log             `mapstructure:"log"`
	Server      Server          `mapstructure:"server"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.interval", "30s")

	v.SetDefault("probe.timeout", "1s")
	v.SetDefault("probe.count", 1)
	v.SetDefault("probe.binary", "ping")
	v.SetDefault("probe.resolver", "")
	v.SetDefault("probe.resolve_timeout", "2s")

	v.SetDefault("run.concurrency", 16)
	v.SetDefault("run.deadline", "4m30s")

	v.SetDefault("alert.subject", DefaultSubject)
	v.SetDefault("alert.to", "")
	v.SetDefault("alert.cc", []string{})

	v.SetDefault("smtp.addr", "localhost:25")
	v.SetDefault("smtp.from", "pingwatch@localhost")
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.tls", TLSNone)
	v.SetDefault("smtp.timeout", "10s")

	v.SetDefault("slack.webhook", "")

	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.interval", "5m")
	v.SetDefault("server.api_keys", []string{})
	v.SetDefault("server.rps", 5.0)
	v.SetDefault("server.burst", 10)
	v.SetDefault("server.history", 20)
	v.SetDefault("server.trust_proxy", false)

	v.SetDefault("targets_file", "")
}

// Load reads path (YAML) when given, applies defaults and environment
// overrides, merges targets_file and validates the result. A missing file
// at an explicit path is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrConfiguration, path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrConfiguration, err)
	}
	cfg.Alert.Cc = splitList(cfg.Alert.Cc)
	cfg.Server.APIKeys = splitList(cfg.Server.APIKeys)

	if cfg.TargetsFile != "" {
		extra, err := targets.LoadFile(cfg.TargetsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		cfg.Targets = append(cfg.Targets, extra...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList flattens comma separated entries, which is how list values
// arrive from environment variables.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate reports every problem at once, wrapped in ErrConfiguration.
func (c *Config) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if _, err := targets.New(c.Targets); err != nil {
		for _, e := range multierr.Errors(err) {
			errs = multierr.Append(errs, e)
		}
	}

	if c.Retry.Attempts < 1 {
		add("retry.attempts must be at least 1, got %d", c.Retry.Attempts)
	}
	if c.Retry.Interval < 0 {
		add("retry.interval must not be negative, got %v", c.Retry.Interval)
	}
	if c.Probe.Timeout <= 0 {
		add("probe.timeout must be positive, got %v", c.Probe.Timeout)
	}
	if c.Probe.Count < 1 {
		add("probe.count must be at least 1, got %d", c.Probe.Count)
	}
	if strings.TrimSpace(c.Probe.Binary) == "" {
		add("probe.binary must not be empty")
	}
	if c.Run.Concurrency < 1 {
		add("run.concurrency must be at least 1, got %d", c.Run.Concurrency)
	}
	if c.Run.Deadline <= 0 {
		add("run.deadline must be positive, got %v", c.Run.Deadline)
	}

	if strings.TrimSpace(c.Alert.To) == "" {
		add("alert.to (primary recipient) is required")
	} else if err := checkMailbox(c.Alert.To); err != nil {
		add("alert.to: %v", err)
	}
	for i, cc := range c.Alert.Cc {
		if err := checkMailbox(cc); err != nil {
			add("alert.cc[%d]: %v", i, err)
		}
	}
	if strings.TrimSpace(c.SMTP.Addr) == "" {
		add("smtp.addr is required")
	}
	if strings.TrimSpace(c.SMTP.From) == "" {
		add("smtp.from is required")
	} else if err := checkMailbox(c.SMTP.From); err != nil {
		add("smtp.from: %v", err)
	}
	switch c.SMTP.TLS {
	case TLSNone, TLSStartTLS, TLSImplicit:
	default:
		add("smtp.tls must be one of %s, %s, %s; got %q", TLSNone, TLSStartTLS, TLSImplicit, c.SMTP.TLS)
	}
	if c.SMTP.Timeout <= 0 {
		add("smtp.timeout must be positive, got %v", c.SMTP.Timeout)
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, errs)
	}
	return nil
}

// ValidateDaemon checks the server settings only daemon mode reads.
func (c *Config) ValidateDaemon() error {
	var errs error
	if c.Server.Interval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("server.interval must be positive, got %v", c.Server.Interval))
	}
	if c.Server.RPS <= 0 || c.Server.Burst < 1 {
		errs = multierr.Append(errs, errors.New("server.rps and server.burst must be positive"))
	}
	if c.Server.History < 1 {
		errs = multierr.Append(errs, fmt.Errorf("server.history must be at least 1, got %d", c.Server.History))
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, errs)
	}
	return nil
}

// checkMailbox accepts a bare address such as ops@example.com. Display names
// are rejected because the value is used verbatim for RCPT TO and headers.
func checkMailbox(s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return errors.New("must not contain line breaks")
	}
	a, err := mail.ParseAddress(s)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	if a.Address != s {
		return fmt.Errorf("%q must be a bare address like %s", s, a.Address)
	}
	return nil
}

// TargetSet builds the validated target set.
func (c *Config) TargetSet() (*targets.Set, error) {
	s, err := targets.New(c.Targets)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return s, nil
}
