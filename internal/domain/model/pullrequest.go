package model

import (
	"encoding/json"
	"time"
)

// Field flags which JSON fields of a pull request document were present with
// the expected type.
type Field uint8

const (
	FieldNumber Field = 1 << iota
	FieldTitle
	FieldURL
	FieldMergedAt
)

// MergedAtState classifies the merged_at field of a decoded pull request.
type MergedAtState int

const (
	MergedAtAbsent MergedAtState = iota
	MergedAtInvalid
	MergedAtValid
)

// PullRequest is a pull request document as returned by the GitHub REST API,
// decoded once into the fields this tool relies on. Raw keeps the untouched
// document. Values are never mutated after DecodePullRequest returns.
type PullRequest struct {
	Number      int
	Title       string
	URL         string
	MergedAt    time.Time // Zero unless MergedAtState() is MergedAtValid.
	MergedAtRaw string
	Raw         json.RawMessage

	present Field
}

// Has reports whether every field in f was present in the source document.
func (pr PullRequest) Has(f Field) bool {
	return pr.present&f == f
}

// MergedAtState reports whether merged_at was absent, unparsable, or a valid instant.
func (pr PullRequest) MergedAtState() MergedAtState {
	switch {
	case !pr.Has(FieldMergedAt):
		return MergedAtAbsent
	case pr.MergedAt.IsZero():
		return MergedAtInvalid
	default:
		return MergedAtValid
	}
}

// Renderable reports whether number, title and html_url are all present.
func (pr PullRequest) Renderable() bool {
	return pr.Has(FieldNumber | FieldTitle | FieldURL)
}

// DecodePullRequest decodes one pull request document. Each field is decoded
// independently: a field that is missing, null or of the wrong JSON type is
// flagged absent rather than failing the whole record. A merged_at string that
// is not an RFC 3339 instant is kept as present but invalid.
func DecodePullRequest(raw json.RawMessage) PullRequest {
	pr := PullRequest{Raw: raw}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return pr
	}

	var number *int
	if decodeField(doc, "number", &number) && number != nil {
		pr.Number = *number
		pr.present |= FieldNumber
	}

	var title *string
	if decodeField(doc, "title", &title) && title != nil {
		pr.Title = *title
		pr.present |= FieldTitle
	}

	var htmlURL *string
	if decodeField(doc, "html_url", &htmlURL) && htmlURL != nil {
		pr.URL = *htmlURL
		pr.present |= FieldURL
	}

	var mergedAt *string
	if decodeField(doc, "merged_at", &mergedAt) && mergedAt != nil {
		pr.MergedAtRaw = *mergedAt
		pr.present |= FieldMergedAt
		if t, err := time.Parse(time.RFC3339, *mergedAt); err == nil {
			pr.MergedAt = t
		}
	}

	return pr
}

func decodeField(doc map[string]json.RawMessage, key string, dst any) bool {
	v, ok := doc[key]
	if !ok {
		return false
	}
	return json.Unmarshal(v, dst) == nil
}

// FilterMergedAfter returns the pull requests merged strictly after boundary,
// in input order. Unmerged records and records with an unparsable merged_at
// are dropped.
func FilterMergedAfter(pulls []PullRequest, boundary time.Time) []PullRequest {
	kept := make([]PullRequest, 0, len(pulls))
	for _, pr := range pulls {
		if pr.MergedAtState() != MergedAtValid {
			continue
		}
		if pr.MergedAt.After(boundary) {
			kept = append(kept, pr)
		}
	}
	return kept
}
