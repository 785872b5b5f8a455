package application_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
	"github.com/ericfisherdev/mergedsince/internal/domain/port/driven"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// --- Fake implementations ---

type fakeResponse struct {
	page *driven.Page
	err  error
}

// fakeFetcher serves canned pages by path and records every requested path.
type fakeFetcher struct {
	responses map[string]fakeResponse
	calls     []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: make(map[string]fakeResponse)}
}

func (f *fakeFetcher) FetchPage(_ context.Context, path string) (*driven.Page, error) {
	f.calls = append(f.calls, path)
	resp, ok := f.responses[path]
	if !ok {
		return &driven.Page{Header: http.Header{}, StatusCode: http.StatusNotFound}, nil
	}
	return resp.page, resp.err
}

// addList registers a listing page at path. next, when non-empty, is
// advertised as the rel="next" link.
func (f *fakeFetcher) addList(path, next string, prs ...prDoc) {
	header := http.Header{}
	if next != "" {
		header.Set("Link", fmt.Sprintf(`<%s>; rel="next", <https://api.github.com/last>; rel="last"`, next))
	}
	body, _ := json.Marshal(prs)
	f.responses[path] = fakeResponse{page: &driven.Page{Header: header, StatusCode: http.StatusOK, Body: body}}
}

// addPull registers a single pull request document at its item path.
func (f *fakeFetcher) addPull(repo model.Repository, pr prDoc) {
	body, _ := json.Marshal(pr)
	f.responses[repo.PullPath(pr.Number)] = fakeResponse{page: &driven.Page{Header: http.Header{}, StatusCode: http.StatusOK, Body: body}}
}

func (f *fakeFetcher) addRaw(path string, status int, header http.Header, body string) {
	if header == nil {
		header = http.Header{}
	}
	var raw json.RawMessage
	if body != "" {
		raw = json.RawMessage(body)
	}
	f.responses[path] = fakeResponse{page: &driven.Page{Header: header, StatusCode: status, Body: raw}}
}

func (f *fakeFetcher) addError(path string, err error) {
	f.responses[path] = fakeResponse{err: err}
}

// prDoc is a helper struct for building GitHub API pull request documents.
type prDoc struct {
	Number   int     `json:"number"`
	Title    string  `json:"title"`
	HTMLURL  string  `json:"html_url"`
	MergedAt *string `json:"merged_at"`
}

func merged(number int, at string) prDoc {
	return prDoc{
		Number:   number,
		Title:    fmt.Sprintf("PR %d", number),
		HTMLURL:  fmt.Sprintf("https://github.com/owner/repo/pull/%d", number),
		MergedAt: &at,
	}
}

func unmerged(number int) prDoc {
	return prDoc{
		Number:  number,
		Title:   fmt.Sprintf("PR %d", number),
		HTMLURL: fmt.Sprintf("https://github.com/owner/repo/pull/%d", number),
	}
}

func numbers(prs []model.PullRequest) []int {
	out := make([]int, 0, len(prs))
	for _, pr := range prs {
		out = append(out, pr.Number)
	}
	return out
}

func decodeAll(prs ...prDoc) []model.PullRequest {
	out := make([]model.PullRequest, 0, len(prs))
	for _, pr := range prs {
		raw, _ := json.Marshal(pr)
		out = append(out, model.DecodePullRequest(raw))
	}
	return out
}

var testRepo = model.Repository{Owner: "owner", Name: "repo"}

var startPath = testRepo.ListClosedPullsPath(0)

func pagePath(n int) string {
	return strings.Replace(startPath, "pulls?", fmt.Sprintf("pulls?page=%d&", n), 1)
}
