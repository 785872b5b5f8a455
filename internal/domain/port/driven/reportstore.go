package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
)

// ErrReportNotFound indicates no stored report has the requested ID.
var ErrReportNotFound = errors.New("report not found")

// ReportStore defines the driven port for selection history persistence.
// Get returns ErrReportNotFound if no report has the given ID.
type ReportStore interface {
	Save(ctx context.Context, report model.Report) error
	Get(ctx context.Context, id string) (*model.Report, error)
	List(ctx context.Context, limit int) ([]model.ReportSummary, error)
}
