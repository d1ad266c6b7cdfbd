// Package probe checks whether a single target answers ICMP echo and wraps
// that check in a bounded retry policy.
package probe

import (
	"context"
	"errors"

	"github.com/hamed0406/pingwatch/internal/domain"
)

// ErrUnresolvable marks a target whose name does not exist. It is a
// configuration problem, not a transient network failure, and is never retried.
var ErrUnresolvable = errors.New("address cannot be resolved")

// Prober performs one reachability check. An unreachable target is reported
// through AttemptResult.Reachable, never as a panic or fatal error.
type Prober interface {
	Probe(ctx context.Context, target domain.Target) domain.AttemptResult
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, target domain.Target) domain.AttemptResult

func (f ProberFunc) Probe(ctx context.Context, target domain.Target) domain.AttemptResult {
	return f(ctx, target)
}
