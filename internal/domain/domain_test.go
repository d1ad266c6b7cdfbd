package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunReport_PartitionsFailedInOrder(t *testing.T) {
	start := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	verdicts := []Verdict{
		{Target: Target{Address: "10.0.0.1", Label: "A"}, Reachable: true, AttemptsUsed: 1},
		{Target: Target{Address: "10.0.0.2", Label: "B"}, Reachable: false, AttemptsUsed: 3},
		{Target: Target{Address: "10.0.0.3", Label: "C"}, Reachable: true, AttemptsUsed: 2},
		{Target: Target{Address: "10.0.0.4", Label: "D"}, Reachable: false, AttemptsUsed: 3},
	}

	r := NewRunReport(start, start.Add(2*time.Second), verdicts)

	require.Len(t, r.Checked, 4)
	require.Len(t, r.Failed, 2)
	assert.Equal(t, "B", r.Failed[0].Target.Label)
	assert.Equal(t, "D", r.Failed[1].Target.Label)
	assert.True(t, r.HasFailures())
	assert.Equal(t, 2*time.Second, r.Duration())

	// the report owns its slice
	verdicts[0].Reachable = false
	assert.True(t, r.Checked[0].Reachable)
}

func TestNewRunReport_AllReachable(t *testing.T) {
	now := time.Now()
	r := NewRunReport(now, now, []Verdict{
		{Target: Target{Address: "10.0.0.1"}, Reachable: true, AttemptsUsed: 1},
	})
	assert.False(t, r.HasFailures())
	assert.Empty(t, r.Failed)
}

func TestTarget_String(t *testing.T) {
	assert.Equal(t, "B (10.0.0.2)", Target{Address: "10.0.0.2", Label: "B"}.String())
	assert.Equal(t, "10.0.0.2", Target{Address: "10.0.0.2"}.String())
	assert.Equal(t, "10.0.0.2", Target{Address: "10.0.0.2", Label: "10.0.0.2"}.String())
}

func TestAlertMessage_Recipients(t *testing.T) {
	m := AlertMessage{
		To: "ops@example.com",
		Cc: []string{"", "noc@example.com", "ops@example.com", "noc@example.com"},
	}
	assert.Equal(t, []string{"ops@example.com", "noc@example.com"}, m.Recipients())
}

func TestVerdict_JSONOmitsEmptyFailure(t *testing.T) {
	b, err := json.Marshal(Verdict{Target: Target{Address: "10.0.0.1", Label: "A"}, Reachable: true, AttemptsUsed: 1})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "first_failure")
	assert.Contains(t, string(b), `"attempts_used":1`)
}
