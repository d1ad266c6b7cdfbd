package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/repo"
)

// Runner performs one complete run.
type Runner interface {
	Run(ctx context.Context) (domain.RunReport, error)
}

// Loop repeats runs on a fixed interval and keeps their reports.
type Loop struct {
	Logger   *zap.Logger
	Runner   Runner
	Reports  repo.ReportStore
	Interval time.Duration
	Deadline time.Duration
}

func NewLoop(
	logger *zap.Logger,
	runner Runner,
	reports repo.ReportStore,
	interval time.Duration,
	deadline time.Duration,
) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if deadline <= 0 || deadline > interval {
		deadline = interval
	}
	return &Loop{
		Logger:   logger,
		Runner:   runner,
		Reports:  reports,
		Interval: interval,
		Deadline: deadline,
	}
}

// Run does an immediate pass, then one per tick, until ctx is cancelled.
// Runs never overlap: a tick that fires during a run is dropped.
func (l *Loop) Run(ctx context.Context) {
	t := time.NewTicker(l.Interval)
	defer t.Stop()

	l.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			l.Logger.Info("loop_stopped")
			return
		case <-t.C:
			l.runOnce(ctx)
		}
	}
}

func (l *Loop) runOnce(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, l.Deadline)
	defer cancel()

	report, err := l.Runner.Run(cctx)
	switch {
	case errors.Is(err, ErrRunAborted):
		if ctx.Err() == nil {
			l.Logger.Warn("run_deadline_exceeded", zap.Duration("deadline", l.Deadline))
		}
		return
	case err != nil:
		l.Logger.Error("run_notify_failed", zap.Error(err))
	}

	if l.Reports == nil {
		return
	}
	if err := l.Reports.Save(ctx, report); err != nil {
		l.Logger.Warn("report_save_error", zap.Error(err))
	}
}
