package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
	"github.com/ericfisherdev/mergedsince/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReportStore = (*ReportRepo)(nil)

// ReportRepo is the SQLite implementation of the ReportStore port interface.
// Each selected pull request is stored with its raw API document so a reloaded
// report decodes exactly as it did when generated.
type ReportRepo struct {
	db *DB
}

// NewReportRepo creates a new ReportRepo backed by the given DB.
func NewReportRepo(db *DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Save inserts a report and its pull requests in a single transaction.
func (r *ReportRepo) Save(ctx context.Context, report model.Report) error {
	const insertReport = `
		INSERT INTO reports (
			id, owner, repo, since_number, boundary, generated_at, pages_fetched, pull_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	const insertPull = `
		INSERT INTO report_pulls (report_id, position, number, merged_at, raw)
		VALUES (?, ?, ?, ?, ?)
	`

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save report %s: %w", report.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, insertReport,
		report.ID, report.Repository.Owner, report.Repository.Name, report.Since,
		formatTime(report.Boundary), formatTime(report.GeneratedAt),
		report.PagesFetched, len(report.Pulls),
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", report.ID, err)
	}

	for i, pr := range report.Pulls {
		_, err := tx.ExecContext(ctx, insertPull,
			report.ID, i, pr.Number, formatTime(pr.MergedAt), string(pr.Raw),
		)
		if err != nil {
			return fmt.Errorf("insert report %s pull #%d: %w", report.ID, pr.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report %s: %w", report.ID, err)
	}

	return nil
}

// Get returns the report with the given ID and its pull requests in their
// original order. Returns driven.ErrReportNotFound if no such report exists.
func (r *ReportRepo) Get(ctx context.Context, id string) (*model.Report, error) {
	const reportQuery = `
		SELECT id, owner, repo, since_number, boundary, generated_at, pages_fetched
		FROM reports
		WHERE id = ?
	`
	const pullsQuery = `
		SELECT raw
		FROM report_pulls
		WHERE report_id = ?
		ORDER BY position
	`

	var report model.Report
	var boundary, generatedAt string
	err := r.db.Reader.QueryRowContext(ctx, reportQuery, id).Scan(
		&report.ID, &report.Repository.Owner, &report.Repository.Name, &report.Since,
		&boundary, &generatedAt, &report.PagesFetched,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get report %s: %w", id, driven.ErrReportNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}

	if report.Boundary, err = parseTime(boundary); err != nil {
		return nil, fmt.Errorf("parse boundary: %w", err)
	}
	if report.GeneratedAt, err = parseTime(generatedAt); err != nil {
		return nil, fmt.Errorf("parse generated_at: %w", err)
	}

	rows, err := r.db.Reader.QueryContext(ctx, pullsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query pulls for report %s: %w", id, err)
	}
	defer rows.Close()

	report.Pulls = []model.PullRequest{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan pull for report %s: %w", id, err)
		}
		report.Pulls = append(report.Pulls, model.DecodePullRequest([]byte(raw)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pulls for report %s: %w", id, err)
	}

	return &report, nil
}

// List returns up to limit report summaries, most recently generated first.
// A limit of zero or less returns every report.
func (r *ReportRepo) List(ctx context.Context, limit int) ([]model.ReportSummary, error) {
	const query = `
		SELECT id, owner, repo, since_number, boundary, generated_at, pull_count
		FROM reports
		ORDER BY generated_at DESC, id
		LIMIT ?
	`

	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	summaries := []model.ReportSummary{}
	for rows.Next() {
		var s model.ReportSummary
		var boundary, generatedAt string
		if err := rows.Scan(
			&s.ID, &s.Repository.Owner, &s.Repository.Name, &s.Since,
			&boundary, &generatedAt, &s.PullCount,
		); err != nil {
			return nil, fmt.Errorf("scan report summary: %w", err)
		}
		if s.Boundary, err = parseTime(boundary); err != nil {
			return nil, fmt.Errorf("parse boundary: %w", err)
		}
		if s.GeneratedAt, err = parseTime(generatedAt); err != nil {
			return nil, fmt.Errorf("parse generated_at: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	return summaries, nil
}

// storedTimeFormat is fixed-width UTC so lexical order matches chronological order.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(storedTimeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
	}
	return t, nil
}
