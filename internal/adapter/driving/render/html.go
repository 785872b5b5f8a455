package render

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
)

// listMarkdown converts GFM to HTML. Raw HTML in titles passes through to
// ugcPolicy rather than being escaped twice.
var listMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

var ugcPolicy = bluemonday.UGCPolicy()

// HTML renders the markdown list as a standalone sanitized HTML page.
type HTML struct{}

// Render implements Renderer.
func (HTML) Render(ctx context.Context, w io.Writer, report *model.Report) error {
	var md bytes.Buffer
	if err := (Markdown{}).Render(ctx, &md, report); err != nil {
		return err
	}

	body, err := sanitizedHTML(md.Bytes())
	if err != nil {
		return err
	}
	if err := Page(report.Title(), templ.Raw(string(body))).Render(ctx, w); err != nil {
		return fmt.Errorf("render html page: %w", err)
	}
	return nil
}

// sanitizedHTML converts markdown to HTML and strips whatever the UGC policy
// does not allow.
func sanitizedHTML(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := listMarkdown.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return ugcPolicy.SanitizeBytes(buf.Bytes()), nil
}
