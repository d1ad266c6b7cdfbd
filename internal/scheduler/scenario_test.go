package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/notify"
	"github.com/hamed0406/pingwatch/internal/probe"
	"github.com/hamed0406/pingwatch/internal/targets"
)

// These tests drive the real RetryPolicy and Notifier with a scripted prober
// and a recording sender.

type recordingSender struct {
	mu   sync.Mutex
	msgs []domain.AlertMessage
}

func (r *recordingSender) Name() string { return "recording" }

func (r *recordingSender) Send(_ context.Context, msg domain.AlertMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

// scripted answers per address; the func receives the 1-based attempt number.
type scripted struct {
	mu    sync.Mutex
	calls map[string]int
	plan  map[string]func(ctx context.Context, attempt int) bool
}

func (s *scripted) Probe(ctx context.Context, t domain.Target) domain.AttemptResult {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[t.Address]++
	n := s.calls[t.Address]
	s.mu.Unlock()

	ok := s.plan[t.Address](ctx, n)
	res := domain.AttemptResult{Target: t, Reachable: ok, Timestamp: time.Now()}
	if ok {
		res.Latency = time.Millisecond
	} else {
		res.Err = errors.New("100% packet loss")
	}
	return res
}

func (s *scripted) count(addr string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[addr]
}

func scenario(t *testing.T, p probe.Prober) (*Coordinator, *recordingSender) {
	t.Helper()
	set, err := targets.New([]domain.Target{
		{Address: "10.0.0.1", Label: "A"},
		{Address: "10.0.0.2", Label: "B"},
	})
	require.NoError(t, err)

	policy := probe.NewRetryPolicy(p, 3, 0, zap.NewNop())
	sender := &recordingSender{}
	n := &notify.Notifier{Sender: sender, To: "ops@example.com"}
	return NewCoordinator(zap.NewNop(), set, policy, n, 4), sender
}

func always(ok bool) func(context.Context, int) bool {
	return func(context.Context, int) bool { return ok }
}

func TestScenario_BAlwaysFails(t *testing.T) {
	p := &scripted{plan: map[string]func(context.Context, int) bool{
		"10.0.0.1": always(true),
		"10.0.0.2": always(false),
	}}
	c, sender := scenario(t, p)

	report, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "10.0.0.2", report.Failed[0].Target.Address)
	assert.Equal(t, 3, report.Failed[0].AttemptsUsed)
	assert.Equal(t, 3, p.count("10.0.0.2"))
	assert.Equal(t, 1, p.count("10.0.0.1"), "A is unaffected by B")
	assert.True(t, report.Checked[0].Reachable)

	require.Len(t, sender.msgs, 1)
	assert.Contains(t, sender.msgs[0].Body, "B (10.0.0.2) failed to respond after 3 attempts")
	assert.NotContains(t, sender.msgs[0].Body, "10.0.0.1")
}

func TestScenario_BRecoversOnSecondAttempt(t *testing.T) {
	p := &scripted{plan: map[string]func(context.Context, int) bool{
		"10.0.0.1": always(true),
		"10.0.0.2": func(_ context.Context, attempt int) bool { return attempt == 2 },
	}}
	c, sender := scenario(t, p)

	report, err := c.Run(context.Background())
	require.NoError(t, err)

	b := report.Checked[1]
	assert.True(t, b.Reachable)
	assert.Equal(t, 2, b.AttemptsUsed)
	assert.Empty(t, report.Failed)
	assert.Empty(t, sender.msgs)
}

func TestScenario_CancelledAfterA(t *testing.T) {
	aDone := make(chan struct{})
	var once sync.Once
	p := &scripted{plan: map[string]func(context.Context, int) bool{
		"10.0.0.1": func(context.Context, int) bool {
			once.Do(func() { close(aDone) })
			return true
		},
		"10.0.0.2": func(ctx context.Context, _ int) bool {
			<-ctx.Done()
			return false
		},
	}}
	c, sender := scenario(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-aDone
		cancel()
	}()

	report, err := c.Run(ctx)
	require.ErrorIs(t, err, ErrRunAborted)
	assert.Empty(t, report.Checked, "no report for a cancelled run")
	assert.Empty(t, sender.msgs)
}
