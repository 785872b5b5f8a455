// Package github implements the PageFetcher port using the go-github library.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
	"github.com/ericfisherdev/mergedsince/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PageFetcher = (*Client)(nil)

// Client implements the driven.PageFetcher port using the go-github library.
type Client struct {
	gh     *gh.Client
	logger *slog.Logger
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
//
// baseURL selects a GitHub Enterprise API root; empty means api.github.com.
// timeout bounds each HTTP call; zero disables the bound.
func NewClient(token, baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	rateLimitClient.Timeout = timeout

	client := gh.NewClient(rateLimitClient).WithAuthToken(token)
	if baseURL != "" {
		u, err := parseBaseURL(baseURL)
		if err != nil {
			return nil, err
		}
		client.BaseURL = u
	}

	return &Client{gh: client, logger: logger}, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, logger *slog.Logger) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	client.BaseURL = u

	return &Client{gh: client, logger: logger}, nil
}

// FetchPage issues one GET for path and returns the raw response. Non-2xx
// responses are returned as a Page carrying the status code; an error is
// returned only when no HTTP response was obtained or path cannot be resolved
// against the API base.
func (c *Client) FetchPage(ctx context.Context, path string) (*driven.Page, error) {
	rel, err := c.relativePath(path)
	if err != nil {
		return nil, err
	}

	req, err := c.gh.NewRequest(http.MethodGet, rel, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rel, err)
	}

	var body json.RawMessage
	resp, err := c.gh.Do(ctx, req, &body)
	if err != nil {
		if hr := errorResponse(err); hr != nil {
			c.logger.Debug("github api error response", "path", rel, "status", hr.StatusCode)
			return &driven.Page{Header: hr.Header, StatusCode: hr.StatusCode}, nil
		}
		return nil, fmt.Errorf("GET %s: %w", rel, err)
	}

	c.logRateLimit(resp, rel)

	if len(body) == 0 {
		body = nil
	}
	return &driven.Page{
		Header:     resp.Header,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// relativePath rewrites a Link header URI into a path relative to the API
// base, so cursors are issued the same way as the first request. Base-relative
// paths pass through unchanged. Absolute and root-relative URIs are resolved
// against the base and must stay under it.
func (c *Client) relativePath(path string) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", &model.Error{Kind: model.KindMalformedLink, Link: path, Err: err}
	}
	if !u.IsAbs() && u.Host == "" && !strings.HasPrefix(u.Path, "/") {
		return path, nil
	}

	base := c.gh.BaseURL
	u = base.ResolveReference(u)
	if u.Scheme != base.Scheme || u.Host != base.Host || !strings.HasPrefix(u.EscapedPath(), base.EscapedPath()) {
		return "", &model.Error{
			Kind: model.KindMalformedLink,
			Link: path,
			Err:  fmt.Errorf("outside API base %s", base),
		}
	}

	rel := strings.TrimPrefix(u.EscapedPath(), base.EscapedPath())
	if u.RawQuery != "" {
		rel += "?" + u.RawQuery
	}
	return rel, nil
}

// errorResponse extracts the HTTP response from go-github's typed API errors.
func errorResponse(err error) *http.Response {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response
	}
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return rateErr.Response
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return abuseErr.Response
	}
	return nil
}

// logRateLimit logs the GitHub API rate limit status after each call.
func (c *Client) logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}

	c.logger.Debug("github api call",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		c.logger.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// parseBaseURL parses an API root and guarantees the trailing slash go-github requires.
func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("parsing base URL: %q is not absolute", raw)
	}
	return u, nil
}
