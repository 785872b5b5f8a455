package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
	"github.com/ericfisherdev/mergedsince/internal/domain/port/driven"
)

// Selector narrows fetched pull requests to those merged after a target pull
// request, using the target's own merge time as the cut line.
type Selector struct {
	fetcher driven.PageFetcher
	repo    model.Repository
	logger  *slog.Logger
}

// NewSelector creates a Selector that looks up targets in repo through fetcher.
func NewSelector(fetcher driven.PageFetcher, repo model.Repository, logger *slog.Logger) *Selector {
	return &Selector{fetcher: fetcher, repo: repo, logger: logger}
}

// Select fetches pull request target, then returns the records merged
// strictly after its merged_at, preserving input order.
func (s *Selector) Select(ctx context.Context, records []model.PullRequest, target int) ([]model.PullRequest, error) {
	kept, _, err := s.selectPulls(ctx, records, target)
	return kept, err
}

func (s *Selector) selectPulls(ctx context.Context, records []model.PullRequest, target int) ([]model.PullRequest, time.Time, error) {
	boundary, err := s.Boundary(ctx, target)
	if err != nil {
		return nil, time.Time{}, err
	}

	kept := model.FilterMergedAfter(records, boundary)
	s.logger.Debug("selected pull requests",
		"target", target,
		"boundary", boundary,
		"input", len(records),
		"kept", len(kept),
	)
	return kept, boundary, nil
}

// Boundary fetches pull request target and returns its merge instant.
func (s *Selector) Boundary(ctx context.Context, target int) (time.Time, error) {
	path := s.repo.PullPath(target)

	page, err := fetch(ctx, s.fetcher, path)
	if err != nil {
		return time.Time{}, err
	}
	if body := bytes.TrimSpace(page.Body); len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return time.Time{}, &model.Error{
			Kind: model.KindTransport,
			Path: path,
			Err:  errors.New("response body is empty"),
		}
	}

	pr := model.DecodePullRequest(page.Body)
	if !pr.Has(model.FieldNumber) || pr.Number != target {
		return time.Time{}, &model.Error{
			Kind:   model.KindMissingBoundary,
			Path:   path,
			Field:  "number",
			Number: target,
			Err:    fmt.Errorf("response describes #%d", pr.Number),
		}
	}

	switch pr.MergedAtState() {
	case model.MergedAtValid:
		return pr.MergedAt, nil
	case model.MergedAtInvalid:
		return time.Time{}, &model.Error{
			Kind:   model.KindMissingBoundary,
			Path:   path,
			Field:  "merged_at",
			Number: target,
			Err:    fmt.Errorf("unparsable timestamp %q", pr.MergedAtRaw),
		}
	default:
		return time.Time{}, &model.Error{
			Kind:   model.KindMissingBoundary,
			Path:   path,
			Field:  "merged_at",
			Number: target,
		}
	}
}
