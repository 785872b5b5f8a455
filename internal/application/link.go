package application

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/tomnomnom/linkheader"

	"github.com/ericfisherdev/mergedsince/internal/domain/model"
)

// relMentionsNext spots a rel parameter naming "next" in raw header text,
// including entries linkheader drops for lacking a <URI>.
var relMentionsNext = regexp.MustCompile(`(?i)\brel\s*=\s*"?[^",;]*\bnext\b`)

// nextCursor extracts the URI of the rel="next" entry from a response's Link
// header. Relation types match case-insensitively within a space-separated
// rel list. ok is false when the header is absent or has no next relation; a
// header that is present but yields no usable entry, or whose next entry
// cannot be read, is a KindMalformedLink error.
func nextCursor(header http.Header) (cursor string, ok bool, err error) {
	values := header.Values("Link")
	raw := strings.TrimSpace(strings.Join(values, ", "))
	if raw == "" {
		return "", false, nil
	}

	links := linkheader.ParseMultiple(values)
	if len(links) == 0 {
		return "", false, &model.Error{Kind: model.KindMalformedLink, Link: raw}
	}

	next, found := findRel(links, "next")
	if !found {
		if relMentionsNext.MatchString(raw) {
			return "", false, &model.Error{Kind: model.KindMalformedLink, Link: raw}
		}
		return "", false, nil
	}

	uri := strings.TrimSpace(next.URL)
	if uri == "" {
		return "", false, &model.Error{Kind: model.KindMalformedLink, Link: raw}
	}
	if _, err := url.Parse(uri); err != nil {
		return "", false, &model.Error{Kind: model.KindMalformedLink, Link: raw, Err: err}
	}

	return uri, true, nil
}

// findRel returns the first link whose rel list contains rel.
func findRel(links linkheader.Links, rel string) (linkheader.Link, bool) {
	for _, link := range links {
		for _, r := range strings.Fields(link.Rel) {
			if strings.EqualFold(r, rel) {
				return link, true
			}
		}
	}
	return linkheader.Link{}, false
}
