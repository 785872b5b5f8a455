package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
	"github.com/ericfisherdev/mergedsince/internal/domain/port/driven"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePull(number int, mergedAt string) model.PullRequest {
	raw, _ := json.Marshal(map[string]any{
		"number":    number,
		"title":     fmt.Sprintf("PR %d", number),
		"html_url":  fmt.Sprintf("https://github.com/octocat/hello-world/pull/%d", number),
		"merged_at": mergedAt,
	})
	return model.DecodePullRequest(raw)
}

func makeReport(id string, generatedAt time.Time, pulls ...model.PullRequest) model.Report {
	return model.Report{
		ID:           id,
		Repository:   model.Repository{Owner: "octocat", Name: "hello-world"},
		Since:        9,
		Boundary:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		GeneratedAt:  generatedAt,
		PagesFetched: 2,
		Pulls:        pulls,
	}
}

func TestReportRepo_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepo(db)
	ctx := context.Background()

	report := makeReport("r-1", time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC),
		makePull(12, "2024-03-07T00:00:00Z"),
		makePull(10, "2024-03-05T19:00:00+09:00"),
	)
	require.NoError(t, repo.Save(ctx, report))

	got, err := repo.Get(ctx, "r-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "r-1", got.ID)
	assert.Equal(t, report.Repository, got.Repository)
	assert.Equal(t, 9, got.Since)
	assert.Equal(t, 2, got.PagesFetched)
	assert.True(t, got.Boundary.Equal(report.Boundary))
	assert.True(t, got.GeneratedAt.Equal(report.GeneratedAt))

	require.Len(t, got.Pulls, 2)
	assert.Equal(t, 12, got.Pulls[0].Number)
	assert.Equal(t, 10, got.Pulls[1].Number)
	assert.Equal(t, "PR 10", got.Pulls[1].Title)
	assert.True(t, got.Pulls[1].Renderable())
	assert.Equal(t, "2024-03-05T19:00:00+09:00", got.Pulls[1].MergedAtRaw)
	assert.True(t, got.Pulls[1].MergedAt.Equal(report.Pulls[1].MergedAt))
}

func TestReportRepo_SaveEmptyReport(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, makeReport("empty", time.Now().UTC())))

	got, err := repo.Get(ctx, "empty")
	require.NoError(t, err)
	assert.NotNil(t, got.Pulls)
	assert.Empty(t, got.Pulls)
}

func TestReportRepo_Save_DuplicateID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepo(db)
	ctx := context.Background()

	report := makeReport("dup", time.Now().UTC(), makePull(1, "2024-03-07T00:00:00Z"))
	require.NoError(t, repo.Save(ctx, report))

	err := repo.Save(ctx, report)
	assert.Error(t, err, "saving a report twice should fail")

	got, err := repo.Get(ctx, "dup")
	require.NoError(t, err)
	assert.Len(t, got.Pulls, 1, "failed save must not leave partial rows")
}

func TestReportRepo_Get_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepo(db)

	got, err := repo.Get(context.Background(), "nope")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, driven.ErrReportNotFound)
}

func TestReportRepo_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepo(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, makeReport("oldest", base)))
	require.NoError(t, repo.Save(ctx, makeReport("newest", base.Add(2*time.Hour),
		makePull(12, "2024-03-07T00:00:00Z"),
		makePull(10, "2024-03-05T10:00:00Z"),
	)))
	require.NoError(t, repo.Save(ctx, makeReport("middle", base.Add(500*time.Millisecond))))

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "newest", all[0].ID)
	assert.Equal(t, "middle", all[1].ID)
	assert.Equal(t, "oldest", all[2].ID)
	assert.Equal(t, 2, all[0].PullCount)
	assert.Equal(t, "octocat/hello-world", all[0].Repository.FullName())

	limited, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "newest", limited[0].ID)
}

func TestReportRepo_List_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepo(db)

	got, err := repo.List(context.Background(), 10)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNewDB_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	db, err := NewDB(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db.Writer))
	// Second run is a no-op.
	require.NoError(t, RunMigrations(db.Writer))
	assert.Equal(t, path, db.Path())
}
