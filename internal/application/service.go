package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
	"github.com/ericfisherdev/mergedsince/internal/domain/port/driven"
)

// ErrHistoryDisabled is returned by history queries when no ReportStore is configured.
var ErrHistoryDisabled = errors.New("selection history is disabled")

// Service runs a full selection: paginate the closed pull request listing
// until the target appears, cut at the target's merge time, and record the
// resulting report.
type Service struct {
	fetcher driven.PageFetcher
	store   driven.ReportStore
	perPage int
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewService creates a Service. store may be nil, in which case reports are
// not persisted and history queries return ErrHistoryDisabled. perPage of zero
// leaves the page size to the API default.
func NewService(fetcher driven.PageFetcher, store driven.ReportStore, perPage int, logger *slog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		store:   store,
		perPage: perPage,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Run selects the pull requests of repo merged strictly after pull request since.
// A failure to persist the report is logged and does not fail the run.
func (s *Service) Run(ctx context.Context, repo model.Repository, since int) (*model.Report, error) {
	s.logger.Info("repository is "+repo.FullName(), "repo", repo.FullName())
	s.logger.Info(fmt.Sprintf("select newer than #%d", since), "since", since)

	paginator := NewPaginator(s.fetcher, s.logger)
	pulls, pages, err := paginator.fetchUntil(ctx, repo.ListClosedPullsPath(s.perPage), since)
	if err != nil {
		return nil, fmt.Errorf("listing pull requests for %s: %w", repo.FullName(), err)
	}
	s.logger.Debug("listing complete", "repo", repo.FullName(), "pages", pages, "count", len(pulls))

	selector := NewSelector(s.fetcher, repo, s.logger)
	kept, boundary, err := selector.selectPulls(ctx, pulls, since)
	if err != nil {
		return nil, fmt.Errorf("selecting pull requests merged after %s#%d: %w", repo.FullName(), since, err)
	}

	report := &model.Report{
		ID:           s.newID(),
		Repository:   repo,
		Since:        since,
		Boundary:     boundary,
		GeneratedAt:  s.now().UTC(),
		PagesFetched: pages,
		Pulls:        kept,
	}

	if s.store != nil {
		if err := s.store.Save(ctx, *report); err != nil {
			s.logger.Error("failed to save report", "report_id", report.ID, "error", err)
		} else {
			s.logger.Debug("report saved", "report_id", report.ID)
		}
	}

	return report, nil
}

// History returns up to limit stored report summaries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]model.ReportSummary, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	summaries, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return summaries, nil
}

// Report returns a stored report by ID.
func (s *Service) Report(ctx context.Context, id string) (*model.Report, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	report, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", id, err)
	}
	return report, nil
}
