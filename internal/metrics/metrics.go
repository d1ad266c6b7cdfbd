// Package metrics holds the Prometheus collectors pingwatch exposes.
// A nil *Metrics is valid and records nothing, so one-shot runs and tests
// can skip registration entirely.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	attempts    *prometheus.CounterVec
	verdicts    *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	alerts      *prometheus.CounterVec
	lastRun     prometheus.Gauge
	failing     prometheus.Gauge
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pingwatch_probe_attempts_total",
			Help: "Probe attempts by outcome.",
		}, []string{"result"}),
		verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pingwatch_verdicts_total",
			Help: "Final per-target verdicts by outcome.",
		}, []string{"result"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pingwatch_runs_total",
			Help: "Runs by outcome.",
		}, []string{"outcome"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pingwatch_run_duration_seconds",
			Help:    "Wall-clock time of completed runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 240, 300},
		}),
		alerts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pingwatch_alerts_total",
			Help: "Alert dispatches by transport and outcome.",
		}, []string{"transport", "result"}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "pingwatch_last_run_timestamp_seconds",
			Help: "Unix time the last run completed.",
		}),
		failing: f.NewGauge(prometheus.GaugeOpts{
			Name: "pingwatch_failing_targets",
			Help: "Targets unreachable in the last completed run.",
		}),
	}
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (m *Metrics) ObserveAttempt(reachable bool) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(result(reachable)).Inc()
}

func (m *Metrics) ObserveVerdict(reachable bool) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(result(reachable)).Inc()
}

// ObserveRun records a completed run.
func (m *Metrics) ObserveRun(d time.Duration, failing int, finished time.Time) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues("completed").Inc()
	m.runDuration.Observe(d.Seconds())
	m.failing.Set(float64(failing))
	m.lastRun.Set(float64(finished.Unix()))
}

func (m *Metrics) ObserveAbortedRun() {
	if m == nil {
		return
	}
	m.runs.WithLabelValues("aborted").Inc()
}

func (m *Metrics) ObserveAlert(transport string, err error) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(transport, result(err == nil)).Inc()
}
