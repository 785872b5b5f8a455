package driven

import (
	"context"
	"encoding/json"
	"net/http"
)

// Page is one raw API response. Body is nil when the response carried no
// content; it is not guaranteed to be a JSON array.
type Page struct {
	Header     http.Header
	StatusCode int
	Body       json.RawMessage
}

// PageFetcher defines the driven port for issuing a single GET against the
// GitHub REST API. path is either relative to the API base URL or an absolute
// URI taken from a Link header.
//
// Implementations return a Page for any HTTP response, including non-2xx
// statuses, and an error only when no response was obtained.
type PageFetcher interface {
	FetchPage(ctx context.Context, path string) (*Page, error)
}
