// Package scheduler runs the checks: one pass over every target per run, and
// a loop that repeats runs on an interval for daemon mode.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/metrics"
	"github.com/hamed0406/pingwatch/internal/targets"
)

const DefaultConcurrency = 16

// ErrRunAborted is returned when a run is cancelled before every verdict is
// known. No alert is sent for an aborted run.
var ErrRunAborted = errors.New("run aborted")

// VerdictResolver turns a target into a verdict, retrying as configured.
type VerdictResolver interface {
	Resolve(ctx context.Context, target domain.Target) (domain.Verdict, error)
}

// Notifier sends the consolidated alert for a report.
type Notifier interface {
	Notify(ctx context.Context, report domain.RunReport) error
}

type Coordinator struct {
	Logger      *zap.Logger
	Targets     *targets.Set
	Policy      VerdictResolver
	Notifier    Notifier
	Concurrency int
	Metrics     *metrics.Metrics

	now func() time.Time
}

func NewCoordinator(
	logger *zap.Logger,
	set *targets.Set,
	policy VerdictResolver,
	notifier Notifier,
	concurrency int,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Coordinator{
		Logger:      logger,
		Targets:     set,
		Policy:      policy,
		Notifier:    notifier,
		Concurrency: concurrency,
		now:         time.Now,
	}
}

// Evaluate resolves every target, at most Concurrency at a time, and returns
// the verdicts in target definition order.
func (c *Coordinator) Evaluate(ctx context.Context) (domain.RunReport, error) {
	started := c.now()
	ts := c.Targets.All()
	verdicts := make([]domain.Verdict, len(ts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Concurrency)
	for i, t := range ts {
		i, t := i, t
		g.Go(func() error {
			v, err := c.Policy.Resolve(gctx, t)
			if err != nil {
				return err
			}
			verdicts[i] = v
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		c.Metrics.ObserveAbortedRun()
		return domain.RunReport{}, fmt.Errorf("%w: %w", ErrRunAborted, err)
	}
	return domain.NewRunReport(started, c.now(), verdicts), nil
}

// Run evaluates all targets and, if any failed, sends exactly one alert.
// A notification error is returned alongside the completed report.
func (c *Coordinator) Run(ctx context.Context) (domain.RunReport, error) {
	c.Logger.Info("run_started", zap.Int("targets", c.Targets.Len()), zap.Int("concurrency", c.Concurrency))

	report, err := c.Evaluate(ctx)
	if err != nil {
		c.Logger.Warn("run_aborted", zap.Error(err))
		return report, err
	}

	for _, v := range report.Checked {
		c.Metrics.ObserveVerdict(v.Reachable)
		fields := []zap.Field{
			zap.String("address", v.Target.Address),
			zap.String("label", v.Target.Label),
			zap.Bool("reachable", v.Reachable),
			zap.Int("attempts", v.AttemptsUsed),
		}
		if v.Reachable {
			c.Logger.Info("target_verdict", append(fields, zap.Duration("latency", v.Latency))...)
			continue
		}
		if v.FirstFailure != nil {
			fields = append(fields, zap.Time("first_failure", *v.FirstFailure))
		}
		c.Logger.Warn("target_verdict", append(fields,
			zap.Bool("misconfigured", v.Misconfigured),
			zap.String("reason", v.Reason),
		)...)
	}
	c.Metrics.ObserveRun(report.Duration(), len(report.Failed), report.FinishedAt)
	c.Logger.Info("run_complete",
		zap.Int("checked", len(report.Checked)),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("elapsed", report.Duration()),
	)

	if !report.HasFailures() {
		return report, nil
	}
	if err := c.Notifier.Notify(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}
