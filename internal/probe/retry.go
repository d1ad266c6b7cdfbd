package probe

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/metrics"
)

const (
	DefaultAttempts = 3
	DefaultInterval = 30 * time.Second
)

// RetryPolicy turns repeated probes into one Verdict per target.
type RetryPolicy struct {
	Prober   Prober
	Attempts int
	Interval time.Duration
	Logger   *zap.Logger
	Metrics  *metrics.Metrics

	// Sleep waits between failed attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy applies the defaults for unset limits. A zero interval is
// kept as is.
func NewRetryPolicy(p Prober, attempts int, interval time.Duration, logger *zap.Logger) *RetryPolicy {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	if interval < 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryPolicy{Prober: p, Attempts: attempts, Interval: interval, Logger: logger}
}

// Resolve probes target until it answers or the attempts are exhausted.
// The only error is the context's, in which case no verdict is produced.
func (r *RetryPolicy) Resolve(ctx context.Context, target domain.Target) (domain.Verdict, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	v := domain.Verdict{Target: target}
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return domain.Verdict{}, err
		}

		res := r.Prober.Probe(ctx, target)
		res.Attempt = i
		v.AttemptsUsed = i
		r.Metrics.ObserveAttempt(res.Reachable)

		if res.Reachable {
			log.Info("probe_attempt",
				zap.String("address", target.Address),
				zap.String("label", target.Label),
				zap.Int("attempt", i),
				zap.Bool("reachable", true),
				zap.Duration("latency", res.Latency),
			)
			v.Reachable = true
			v.Latency = res.Latency
			v.Reason = ""
			return v, nil
		}

		// a probe interrupted by shutdown says nothing about the target
		if err := ctx.Err(); err != nil {
			return domain.Verdict{}, err
		}

		if v.FirstFailure == nil {
			ts := res.Timestamp
			if ts.IsZero() {
				ts = time.Now()
			}
			v.FirstFailure = &ts
		}
		if res.Err != nil {
			v.Reason = res.Err.Error()
		}
		log.Warn("probe_attempt",
			zap.String("address", target.Address),
			zap.String("label", target.Label),
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Bool("reachable", false),
			zap.Error(res.Err),
		)

		if errors.Is(res.Err, ErrUnresolvable) {
			v.Misconfigured = true
			log.Error("target_unresolvable",
				zap.String("address", target.Address),
				zap.String("label", target.Label),
				zap.Error(res.Err),
			)
			return v, nil
		}

		if i < attempts && r.Interval > 0 {
			if err := sleep(ctx, r.Interval); err != nil {
				return domain.Verdict{}, err
			}
		}
	}
	return v, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
