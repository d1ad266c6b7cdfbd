package domain

import "time"

// Target is a monitored endpoint. Address is unique within a run, labels are not.
type Target struct {
	Address string `json:"address" yaml:"address" mapstructure:"address"`
	Label   string `json:"label" yaml:"label" mapstructure:"label"`
}

// String renders the target the way alerts and logs refer to it.
func (t Target) String() string {
	if t.Label == "" || t.Label == t.Address {
		return t.Address
	}
	return t.Label + " (" + t.Address + ")"
}

// AttemptResult is the outcome of a single probe.
type AttemptResult struct {
	Target    Target        `json:"target"`
	Attempt   int           `json:"attempt"`
	Reachable bool          `json:"reachable"`
	Latency   time.Duration `json:"latency,omitempty"` // zero when unreachable
	Timestamp time.Time     `json:"timestamp"`
	Err       error         `json:"-"`
}

// Verdict is the final reachable/unreachable determination for one target
// after retries.
type Verdict struct {
	Target       Target        `json:"target"`
	Reachable    bool          `json:"reachable"`
	AttemptsUsed int           `json:"attempts_used"`
	FirstFailure *time.Time    `json:"first_failure,omitempty"`
	Latency      time.Duration `json:"latency,omitempty"`

	// Misconfigured marks a target whose address could not be resolved at all.
	Misconfigured bool   `json:"misconfigured,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// AlertMessage is handed to a mail transport and then discarded.
type AlertMessage struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	To      string   `json:"to"`
	Cc      []string `json:"cc,omitempty"`
}

// Recipients returns To followed by Cc, skipping blanks and duplicates.
func (m AlertMessage) Recipients() []string {
	seen := make(map[string]struct{}, len(m.Cc)+1)
	out := make([]string, 0, len(m.Cc)+1)
	for _, r := range append([]string{m.To}, m.Cc...) {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
