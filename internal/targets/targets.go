// Package targets holds the validated, ordered set of monitored targets for
// one run. A Set is immutable once built.
package targets

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/probe"
)

var (
	ErrNoTargets        = errors.New("no targets configured")
	ErrDuplicateAddress = errors.New("duplicate target address")
)

// Set is the ordered list of targets probed in a run.
type Set struct {
	targets []domain.Target
}

// New validates targets and keeps their order. Every problem is reported,
// not just the first one.
func New(ts []domain.Target) (*Set, error) {
	if len(ts) == 0 {
		return nil, ErrNoTargets
	}

	var errs error
	seen := make(map[string]int, len(ts))
	out := make([]domain.Target, 0, len(ts))
	for i, t := range ts {
		if err := probe.ValidateAddress(t.Address); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("target %d (%s): %w", i+1, t.Label, err))
			continue
		}
		key := addressKey(t.Address)
		if first, dup := seen[key]; dup {
			errs = multierr.Append(errs, fmt.Errorf("target %d: %w %q (first defined as target %d)",
				i+1, ErrDuplicateAddress, t.Address, first))
			continue
		}
		seen[key] = i + 1
		if t.Label == "" {
			t.Label = t.Address
		}
		out = append(out, t)
	}
	if errs != nil {
		return nil, errs
	}
	return &Set{targets: out}, nil
}

// addressKey folds the spellings of one host together: IPs in canonical
// form, names lower-cased without the root dot.
func addressKey(a string) string {
	if ip := net.ParseIP(a); ip != nil {
		return ip.String()
	}
	return strings.ToLower(strings.TrimSuffix(a, "."))
}

// All returns the targets in configuration order. The slice is a copy.
func (s *Set) All() []domain.Target {
	out := make([]domain.Target, len(s.targets))
	copy(out, s.targets)
	return out
}

func (s *Set) Len() int { return len(s.targets) }
