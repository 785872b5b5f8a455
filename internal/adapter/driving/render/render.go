// Package render writes selection reports for humans and scripts.
package render

import (
	"context"
	"fmt"
	"io"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
)

// Renderer writes a report to w. Pull requests lacking a number, title or
// html_url are skipped silently by every renderer.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, report *model.Report) error
}

// ForFormat returns the renderer for a format.
func ForFormat(f model.Format) (Renderer, error) {
	switch f {
	case model.FormatMarkdown:
		return Markdown{}, nil
	case model.FormatJSON:
		return JSON{}, nil
	case model.FormatHTML:
		return HTML{}, nil
	default:
		return nil, fmt.Errorf("no renderer for format %q", f)
	}
}

// renderable returns the pull requests that carry every field a line needs.
func renderable(pulls []model.PullRequest) []model.PullRequest {
	out := make([]model.PullRequest, 0, len(pulls))
	for _, pr := range pulls {
		if pr.Renderable() {
			out = append(out, pr)
		}
	}
	return out
}
