package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/pingwatch/internal/domain"
)

// scripted prober you can control: results are consumed in order, then it
// keeps returning the last one.
type scriptedProber struct {
	mu      sync.Mutex
	results []bool
	errs    []error
	calls   int
	stamps  []time.Time
}

func (s *scriptedProber) Probe(ctx context.Context, t domain.Target) domain.AttemptResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	now := time.Now()
	s.stamps = append(s.stamps, now)

	ok := s.results[len(s.results)-1]
	if i < len(s.results) {
		ok = s.results[i]
	}
	res := domain.AttemptResult{Target: t, Reachable: ok, Timestamp: now}
	if ok {
		res.Latency = time.Millisecond
		return res
	}
	res.Err = fmt.Errorf("attempt %d timed out", i+1)
	if i < len(s.errs) && s.errs[i] != nil {
		res.Err = s.errs[i]
	}
	return res
}

type sleepRecorder struct {
	waits []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

var tgt = domain.Target{Address: "10.0.0.2", Label: "B"}

func TestRetryPolicy_AlwaysFailing_UsesExactlyMaxAttempts(t *testing.T) {
	for _, attempts := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("attempts=%d", attempts), func(t *testing.T) {
			p := &scriptedProber{results: []bool{false}}
			rec := &sleepRecorder{}
			rp := NewRetryPolicy(p, attempts, 30*time.Second, zap.NewNop())
			rp.Sleep = rec.sleep

			v, err := rp.Resolve(context.Background(), tgt)
			require.NoError(t, err)

			assert.False(t, v.Reachable)
			assert.Equal(t, attempts, v.AttemptsUsed)
			assert.Equal(t, attempts, p.calls)
			require.NotNil(t, v.FirstFailure)
			assert.Equal(t, p.stamps[0], *v.FirstFailure)
			assert.Contains(t, v.Reason, "timed out")

			// waits only between consecutive attempts
			require.Len(t, rec.waits, attempts-1)
			for _, w := range rec.waits {
				assert.Equal(t, 30*time.Second, w)
			}
		})
	}
}

func TestRetryPolicy_EarlySuccess_StopsImmediately(t *testing.T) {
	p := &scriptedProber{results: []bool{false, true}}
	rec := &sleepRecorder{}
	rp := NewRetryPolicy(p, 3, 30*time.Second, zap.NewNop())
	rp.Sleep = rec.sleep

	v, err := rp.Resolve(context.Background(), tgt)
	require.NoError(t, err)

	assert.True(t, v.Reachable)
	assert.Equal(t, 2, v.AttemptsUsed)
	assert.Equal(t, 2, p.calls)
	assert.Empty(t, v.Reason)
	assert.Equal(t, time.Millisecond, v.Latency)
	// one wait after the first failure, none after the success
	assert.Len(t, rec.waits, 1)
}

func TestRetryPolicy_FirstAttemptSucceeds_NoWait(t *testing.T) {
	p := &scriptedProber{results: []bool{true}}
	rec := &sleepRecorder{}
	rp := NewRetryPolicy(p, 3, time.Minute, zap.NewNop())
	rp.Sleep = rec.sleep

	v, err := rp.Resolve(context.Background(), tgt)
	require.NoError(t, err)
	assert.True(t, v.Reachable)
	assert.Equal(t, 1, v.AttemptsUsed)
	assert.Nil(t, v.FirstFailure)
	assert.Empty(t, rec.waits)
}

func TestRetryPolicy_WaitsIntervalBetweenAttempts(t *testing.T) {
	const interval = 20 * time.Millisecond
	p := &scriptedProber{results: []bool{false}}
	rp := NewRetryPolicy(p, 3, interval, zap.NewNop())

	v, err := rp.Resolve(context.Background(), tgt)
	require.NoError(t, err)
	require.Equal(t, 3, v.AttemptsUsed)
	require.Len(t, p.stamps, 3)

	for i := 1; i < len(p.stamps); i++ {
		assert.GreaterOrEqual(t, p.stamps[i].Sub(p.stamps[i-1]), interval)
	}
}

func TestRetryPolicy_ZeroIntervalNeverSleeps(t *testing.T) {
	p := &scriptedProber{results: []bool{false}}
	rec := &sleepRecorder{}
	rp := NewRetryPolicy(p, 3, 0, zap.NewNop())
	rp.Sleep = rec.sleep

	v, err := rp.Resolve(context.Background(), tgt)
	require.NoError(t, err)
	assert.Equal(t, 3, v.AttemptsUsed)
	assert.Empty(t, rec.waits)
}

func TestRetryPolicy_UnresolvableIsNotRetried(t *testing.T) {
	p := &scriptedProber{
		results: []bool{false},
		errs:    []error{fmt.Errorf("resolve nope.invalid: %w", ErrUnresolvable)},
	}
	rp := NewRetryPolicy(p, 3, 0, zap.NewNop())

	v, err := rp.Resolve(context.Background(), domain.Target{Address: "nope.invalid", Label: "N"})
	require.NoError(t, err)
	assert.False(t, v.Reachable)
	assert.True(t, v.Misconfigured)
	assert.Equal(t, 1, v.AttemptsUsed)
	assert.Equal(t, 1, p.calls)
}

func TestRetryPolicy_CancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &scriptedProber{results: []bool{false}}
	rp := NewRetryPolicy(p, 3, time.Hour, zap.NewNop())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	v, err := rp.Resolve(ctx, tgt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, domain.Verdict{}, v)
	assert.Equal(t, 1, p.calls)
}

func TestRetryPolicy_AlreadyCancelled_DoesNotProbe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &scriptedProber{results: []bool{true}}

	_, err := NewRetryPolicy(p, 3, 0, zap.NewNop()).Resolve(ctx, tgt)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.calls)
}

func TestRetryPolicy_LogsOneLinePerAttempt(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := &scriptedProber{results: []bool{false, false, true}}
	rp := NewRetryPolicy(p, 3, 0, zap.New(core))

	_, err := rp.Resolve(context.Background(), tgt)
	require.NoError(t, err)

	entries := logs.FilterMessage("probe_attempt").All()
	require.Len(t, entries, 3)
	assert.Equal(t, int64(1), entries[0].ContextMap()["attempt"])
	assert.Equal(t, true, entries[2].ContextMap()["reachable"])
}

func TestNewRetryPolicy_Defaults(t *testing.T) {
	rp := NewRetryPolicy(&scriptedProber{results: []bool{true}}, 0, -1, nil)
	assert.Equal(t, DefaultAttempts, rp.Attempts)
	assert.Equal(t, DefaultInterval, rp.Interval)
	assert.NotNil(t, rp.Logger)
}
