// Package harvest implements the blog harvesting pipeline: pagination
// discovery, bounded-concurrency post fetching, and ordered hand-off of
// completed records to the archive writer.
package harvest

import (
	"context"
	"time"
)

// PostReference identifies one post discovered while walking listing pages.
// Discovery is the zero-based position in listing order and is the canonical
// archival order for the run.
type PostReference struct {
	ID        string
	URL       string
	Discovery int
}

// CommentNode is one comment in a post's reply forest. ParentID is empty for
// top-level comments. Replies hold the direct children in source order;
// Ordinal is the node's position among its siblings.
type CommentNode struct {
	ID         string
	ParentID   string
	Author     string
	ProfileURL string
	Posted     time.Time
	Body       string
	Ordinal    int
	Replies    []*CommentNode
}

// PostRecord is a fully harvested post with its comment forest.
type PostRecord struct {
	ID        string
	Title     string
	URL       string
	Published time.Time
	Body      string
	Comments  []*CommentNode
	Discovery int
}

// Outcome pairs a reference with its harvest result. Exactly one of Record
// and Err is set.
type Outcome struct {
	Ref    PostReference
	Record *PostRecord
	Err    error
}

// ListingEntry is a post link as it appears on a listing page.
type ListingEntry struct {
	ID    string
	URL   string
	Title string
}

// Listing is one parsed listing page: the entries in page order and the URL
// of the next (older) page. NextURL is empty when the listing is exhausted.
type Listing struct {
	Entries []ListingEntry
	NextURL string
}

// Fetcher retrieves raw markup for a URL. Implementations must honor the
// context and bound every network wait with a timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser extracts structured records from fetched markup.
type Parser interface {
	ParseListing(markup []byte) (Listing, error)
	ParsePost(markup []byte, url string) (*PostRecord, error)
}

// ArchivedSet reports which post identifiers are already archived, so a
// resumed run fetches only the delta.
type ArchivedSet interface {
	IsArchived(id string) bool
}

// Limiter gates the rate at which requests are issued against the target
// host.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}
