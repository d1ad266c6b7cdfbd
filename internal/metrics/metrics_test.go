package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveAttempt(true)
	m.ObserveAttempt(false)
	m.ObserveAttempt(false)
	m.ObserveVerdict(false)
	m.ObserveAlert("smtp", nil)
	m.ObserveAlert("smtp", errors.New("boom"))
	m.ObserveRun(3*time.Second, 2, time.Unix(1700000000, 0))
	m.ObserveAbortedRun()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verdicts.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alerts.WithLabelValues("smtp", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("aborted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.failing))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.lastRun))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAttempt(true)
		m.ObserveVerdict(true)
		m.ObserveRun(time.Second, 0, time.Now())
		m.ObserveAbortedRun()
		m.ObserveAlert("smtp", nil)
	})
}
