package model

import (
	"fmt"
	"strings"
)

// Format names how a report is rendered.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// Formats lists every supported format, default first.
var Formats = []Format{FormatMarkdown, FormatJSON, FormatHTML}

// ParseFormat normalizes a format name. Matching ignores case and surrounding
// space, and "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "md" {
		return FormatMarkdown, nil
	}
	for _, f := range Formats {
		if name == string(f) {
			return f, nil
		}
	}

	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("invalid format %q (want one of %s)", s, strings.Join(names, ", "))
}
