package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/pingwatch/internal/domain"
)

var ErrNotFound = errors.New("not found")

// ReportStore keeps recent run reports for the status API. Reports are
// process-local; nothing survives a restart.
type ReportStore interface {
	Save(ctx context.Context, r domain.RunReport) error
	// Latest returns ErrNotFound before the first run completes.
	Latest(ctx context.Context) (domain.RunReport, error)
	// Recent returns up to limit reports, newest first.
	Recent(ctx context.Context, limit int) ([]domain.RunReport, error)
}
