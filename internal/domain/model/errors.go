package model

import (
	"fmt"
	"strings"
)

// ErrorKind discriminates the failure categories of a selection run.
type ErrorKind int

const (
	// KindTransport: the fetch itself failed (network, non-2xx, malformed envelope).
	KindTransport ErrorKind = iota + 1
	// KindPaginationExhausted: no "next" link remained before the target was found.
	KindPaginationExhausted
	// KindMalformedLink: a Link header was present but yielded no usable continuation.
	KindMalformedLink
	// KindMissingBoundary: the target pull request has no usable merged_at.
	KindMissingBoundary
	// KindCredentialMissing: the API token was not configured.
	KindCredentialMissing
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport error"
	case KindPaginationExhausted:
		return "pagination exhausted"
	case KindMalformedLink:
		return "malformed link"
	case KindMissingBoundary:
		return "missing boundary"
	case KindCredentialMissing:
		return "credential missing"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is matching on kind alone.
var (
	ErrTransport           = &Error{Kind: KindTransport}
	ErrPaginationExhausted = &Error{Kind: KindPaginationExhausted}
	ErrMalformedLink       = &Error{Kind: KindMalformedLink}
	ErrMissingBoundary     = &Error{Kind: KindMissingBoundary}
	ErrCredentialMissing   = &Error{Kind: KindCredentialMissing}
)

// Error is the single error type produced by the fetch and selection core.
// Only the fields relevant to Kind are set.
type Error struct {
	Kind       ErrorKind
	Path       string // Request path being fetched.
	StatusCode int    // HTTP status for non-2xx responses.
	Link       string // Raw Link header value.
	Field      string // JSON field or env var at fault.
	Number     int    // Target pull request number.
	Pages      int    // Pages fetched before failing.
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())

	switch e.Kind {
	case KindTransport:
		if e.Path != "" {
			fmt.Fprintf(&b, ": GET %s", e.Path)
		}
		if e.StatusCode != 0 {
			fmt.Fprintf(&b, ": status %d", e.StatusCode)
		}
	case KindPaginationExhausted:
		fmt.Fprintf(&b, ": #%d not found after %d page(s)", e.Number, e.Pages)
	case KindMalformedLink:
		fmt.Fprintf(&b, ": cannot follow link header %q", e.Link)
	case KindMissingBoundary:
		fmt.Fprintf(&b, ": #%d has no usable %s", e.Number, e.Field)
	case KindCredentialMissing:
		fmt.Fprintf(&b, ": %s is not set", e.Field)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
