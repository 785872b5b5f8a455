package render

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
)

// Markdown renders one "- [#N](url) title" line per pull request.
type Markdown struct{}

// Render implements Renderer.
func (Markdown) Render(_ context.Context, w io.Writer, report *model.Report) error {
	bw := bufio.NewWriter(w)
	for _, pr := range renderable(report.Pulls) {
		if _, err := fmt.Fprintf(bw, "- [#%d](%s) %s\n", pr.Number, pr.URL, pr.Title); err != nil {
			return fmt.Errorf("write markdown line: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush markdown: %w", err)
	}
	return nil
}
