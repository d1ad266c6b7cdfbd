package domain

import "time"

// RunReport is built once per run after every verdict is known.
type RunReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Checked    []Verdict `json:"checked"`
	Failed     []Verdict `json:"failed"`
}

// NewRunReport copies verdicts and partitions the unreachable ones into
// Failed, keeping their order.
func NewRunReport(startedAt, finishedAt time.Time, verdicts []Verdict) RunReport {
	checked := make([]Verdict, len(verdicts))
	copy(checked, verdicts)

	var failed []Verdict
	for _, v := range checked {
		if !v.Reachable {
			failed = append(failed, v)
		}
	}
	return RunReport{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Checked:    checked,
		Failed:     failed,
	}
}

// HasFailures reports whether any target stayed unreachable.
func (r RunReport) HasFailures() bool { return len(r.Failed) > 0 }

// Duration is the wall-clock time the run took.
func (r RunReport) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }
