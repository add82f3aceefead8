package harvest

import (
	"fmt"
	"net/http"
)

// FetchErrorKind classifies fetch failures.
type FetchErrorKind string

// Fetch failure kinds.
const (
	FetchTimeout     FetchErrorKind = "timeout"
	FetchHTTPStatus  FetchErrorKind = "http_status"
	FetchUnreachable FetchErrorKind = "unreachable"
	FetchNotFound    FetchErrorKind = "not_found"
	FetchMalformed   FetchErrorKind = "malformed"
)

// FetchError reports a failed fetch attempt. Transient kinds are retried by
// the retrying fetcher; terminal kinds are returned immediately.
type FetchError struct {
	Kind   FetchErrorKind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Transient reports whether the failure is worth retrying.
func (e *FetchError) Transient() bool {
	switch e.Kind {
	case FetchTimeout, FetchUnreachable:
		return true
	case FetchHTTPStatus:
		return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
	default:
		return false
	}
}

// ParseErrorKind classifies parse failures.
type ParseErrorKind string

// Parse failure kinds.
const (
	MalformedListing      ParseErrorKind = "malformed_listing"
	MalformedPost         ParseErrorKind = "malformed_post"
	DanglingCommentParent ParseErrorKind = "dangling_comment_parent"
)

// ParseError reports markup that could not be interpreted. A ParseError for
// a single post never aborts the batch; the coordinator records it and moves
// on.
type ParseError struct {
	Kind   ParseErrorKind
	URL    string
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("parse %s: %s: %s", e.URL, e.Kind, e.Detail)
	}
	return fmt.Sprintf("parse %s: %s", e.URL, e.Kind)
}

// HarvestError wraps the per-reference failure (fetch or parse) recorded by
// the coordinator.
type HarvestError struct {
	Ref PostReference
	Err error
}

func (e *HarvestError) Error() string {
	return fmt.Sprintf("harvest post %s (%s): %v", e.Ref.ID, e.Ref.URL, e.Err)
}

func (e *HarvestError) Unwrap() error { return e.Err }

// ArchiveErrorKind classifies archive write failures.
type ArchiveErrorKind string

// Archive failure kinds.
const (
	WriteFailure    ArchiveErrorKind = "write_failure"
	ChunkCorruption ArchiveErrorKind = "chunk_corruption"
)

// ArchiveError reports a failed chunk or index write. It is fatal for the
// current run: buffers are discarded and session state keeps only the posts
// flushed before the failure.
type ArchiveError struct {
	Kind ArchiveErrorKind
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }
