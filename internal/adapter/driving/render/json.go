package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
)

// JSON renders the report as an indented JSON array.
type JSON struct{}

type pullJSON struct {
	Number   int    `json:"number"`
	Title    string `json:"title"`
	HTMLURL  string `json:"html_url"`
	MergedAt string `json:"merged_at"`
}

// Render implements Renderer.
func (JSON) Render(_ context.Context, w io.Writer, report *model.Report) error {
	pulls := renderable(report.Pulls)
	out := make([]pullJSON, 0, len(pulls))
	for _, pr := range pulls {
		out = append(out, pullJSON{
			Number:   pr.Number,
			Title:    pr.Title,
			HTMLURL:  pr.URL,
			MergedAt: pr.MergedAtRaw,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
