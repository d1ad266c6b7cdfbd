package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/hamed0406/pingwatch/internal/domain"
)

const DefaultSubject = "[ALERT] - Ping Failure Notification"

// BuildMessage renders one line per failed verdict, in report order.
func BuildMessage(report domain.RunReport, subject, to string, cc []string) domain.AlertMessage {
	if subject == "" {
		subject = DefaultSubject
	}

	var b strings.Builder
	for _, v := range report.Failed {
		b.WriteString(failureLine(v))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%d of %d targets unreachable in the run started at %s.\n",
		len(report.Failed), len(report.Checked), report.StartedAt.UTC().Format(time.RFC3339))

	return domain.AlertMessage{
		Subject: subject,
		Body:    b.String(),
		To:      to,
		Cc:      append([]string(nil), cc...),
	}
}

func failureLine(v domain.Verdict) string {
	label := v.Target.Label
	if label == "" {
		label = v.Target.Address
	}
	if v.Misconfigured {
		return fmt.Sprintf("%s (%s) could not be resolved (configuration error)", label, v.Target.Address)
	}

	line := fmt.Sprintf("%s (%s) failed to respond after %d attempts", label, v.Target.Address, v.AttemptsUsed)
	if v.FirstFailure != nil {
		line += " (first failure at " + v.FirstFailure.UTC().Format(time.RFC3339) + ")"
	}
	return line
}
