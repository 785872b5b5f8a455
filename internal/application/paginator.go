// Package application contains use-case orchestration services.
package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
	"github.com/ericfisherdev/mergedsince/internal/domain/port/driven"
)

// Paginator walks a newest-first pull request listing page by page until the
// page containing a target pull request has been fetched.
type Paginator struct {
	fetcher driven.PageFetcher
	logger  *slog.Logger
}

// NewPaginator creates a Paginator issuing requests through fetcher.
func NewPaginator(fetcher driven.PageFetcher, logger *slog.Logger) *Paginator {
	return &Paginator{fetcher: fetcher, logger: logger}
}

// FetchUntil fetches startPath and follows rel="next" links until a page
// contains pull request target, returning every record seen in fetch order.
// It stops at the first matching page even if more pages exist.
//
// A response whose body is absent or not a JSON array ends the walk without
// error. Running out of next links before the target appears is a
// KindPaginationExhausted error.
func (p *Paginator) FetchUntil(ctx context.Context, startPath string, target int) ([]model.PullRequest, error) {
	pulls, _, err := p.fetchUntil(ctx, startPath, target)
	return pulls, err
}

// fetchUntil is FetchUntil that also reports the number of pages fetched.
func (p *Paginator) fetchUntil(ctx context.Context, startPath string, target int) ([]model.PullRequest, int, error) {
	var all []model.PullRequest
	path := startPath

	for pages := 1; ; pages++ {
		page, err := fetch(ctx, p.fetcher, path)
		if err != nil {
			return nil, pages, err
		}

		records, isList := decodePage(page.Body)
		p.logger.Debug("fetched page", "path", path, "page", pages, "count", len(records))
		if !isList {
			p.logger.Debug("page body is not a list, stopping", "path", path, "page", pages)
			return all, pages, nil
		}

		all = append(all, records...)
		if containsNumber(records, target) {
			return all, pages, nil
		}

		next, ok, err := nextCursor(page.Header)
		if err != nil {
			var linkErr *model.Error
			if errors.As(err, &linkErr) {
				linkErr.Path = path
				linkErr.Number = target
				linkErr.Pages = pages
			}
			return nil, pages, err
		}
		if !ok {
			return nil, pages, &model.Error{
				Kind:   model.KindPaginationExhausted,
				Path:   path,
				Link:   page.Header.Get("Link"),
				Number: target,
				Pages:  pages,
			}
		}
		path = next
	}
}

// fetch performs one GET through fetcher, turning fetch failures and non-2xx
// statuses into KindTransport errors. Errors already typed as *model.Error
// pass through unchanged.
func fetch(ctx context.Context, fetcher driven.PageFetcher, path string) (*driven.Page, error) {
	page, err := fetcher.FetchPage(ctx, path)
	if err != nil {
		var modelErr *model.Error
		if errors.As(err, &modelErr) {
			return nil, err
		}
		return nil, &model.Error{Kind: model.KindTransport, Path: path, Err: err}
	}
	if page == nil {
		return nil, &model.Error{Kind: model.KindTransport, Path: path, Err: errors.New("no response")}
	}
	if page.StatusCode < 200 || page.StatusCode > 299 {
		return nil, &model.Error{Kind: model.KindTransport, Path: path, StatusCode: page.StatusCode}
	}
	return page, nil
}

// decodePage decodes a listing body. isList is false when the body is absent,
// null, or anything other than a JSON array.
func decodePage(body json.RawMessage) (records []model.PullRequest, isList bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(trimmed, &docs); err != nil {
		return nil, false
	}

	records = make([]model.PullRequest, 0, len(docs))
	for _, doc := range docs {
		records = append(records, model.DecodePullRequest(doc))
	}
	return records, true
}

// containsNumber reports whether any record carries pull request number target.
func containsNumber(records []model.PullRequest, target int) bool {
	for _, pr := range records {
		if pr.Has(model.FieldNumber) && pr.Number == target {
			return true
		}
	}
	return false
}
