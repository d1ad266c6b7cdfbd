// Package notify turns a run report with failures into one consolidated
// alert and dispatches it through the configured transports.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/metrics"
)

var (
	// ErrAuth marks a transport authentication failure.
	ErrAuth = errors.New("authentication failed")

	ErrNoRecipients = errors.New("no recipients")
)

// Sender delivers one alert message.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg domain.AlertMessage) error
}

// Error is returned when an alert could not be dispatched. It is terminal for
// the run; the next scheduled run will try again.
type Error struct {
	Transport string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("notify via %s: %v", e.Transport, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Multi sends to every sender and reports all failures.
type Multi []Sender

func (m Multi) Name() string {
	names := make([]string, 0, len(m))
	for _, s := range m {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

func (m Multi) Send(ctx context.Context, msg domain.AlertMessage) error {
	var errs error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Send(ctx, msg); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errs
}

// Notifier builds the consolidated alert for a report and sends it once.
type Notifier struct {
	Sender  Sender
	Subject string
	To      string
	Cc      []string
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Notify sends one alert listing every failed verdict. Reports without
// failures are ignored. Delivery is not retried.
func (n *Notifier) Notify(ctx context.Context, report domain.RunReport) error {
	if !report.HasFailures() {
		return nil
	}
	log := n.Logger
	if log == nil {
		log = zap.NewNop()
	}

	msg := BuildMessage(report, n.Subject, n.To, n.Cc)
	err := n.Sender.Send(ctx, msg)
	n.Metrics.ObserveAlert(n.Sender.Name(), err)
	if err != nil {
		log.Error("alert_dispatch_failed",
			zap.String("transport", n.Sender.Name()),
			zap.Bool("auth", errors.Is(err, ErrAuth)),
			zap.Int("failed_targets", len(report.Failed)),
			zap.Error(err),
		)
		return &Error{Transport: n.Sender.Name(), Err: err}
	}

	log.Info("alert_sent",
		zap.String("transport", n.Sender.Name()),
		zap.String("to", msg.To),
		zap.Strings("cc", msg.Cc),
		zap.Int("failed_targets", len(report.Failed)),
	)
	return nil
}
