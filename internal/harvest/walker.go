package harvest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// WalkState is the pagination walker's terminal condition.
type WalkState string

// Walker states. HasNextPage is the only non-terminal state.
const (
	WalkHasNextPage  WalkState = "has_next_page"
	WalkExhausted    WalkState = "exhausted"
	WalkLimitReached WalkState = "limit_reached"
)

// WalkerConfig is the immutable configuration for one enumeration pass.
// MaxPosts of zero means unlimited.
type WalkerConfig struct {
	BaseURL  string
	MaxPosts int
}

// Walker enumerates post references by fetching listing pages sequentially.
// Listing pages must be walked in order: each page's next link comes from
// the prior page's content.
type Walker struct {
	fetcher Fetcher
	parser  Parser
	cfg     WalkerConfig
	logger  *zap.Logger
	onPage  func(url string)
}

// NewWalker builds a Walker. onPage, when non-nil, observes each fully
// processed listing page URL (the session's resume cursor).
func NewWalker(fetcher Fetcher, parser Parser, cfg WalkerConfig, logger *zap.Logger, onPage func(url string)) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		fetcher: fetcher,
		parser:  parser,
		cfg:     cfg,
		logger:  logger,
		onPage:  onPage,
	}
}

// Walk enumerates references in listing order until the listing is exhausted
// or the configured post limit truncates the current page. A listing page
// that cannot be fetched or parsed ends the walk with an error; references
// gathered so far are still returned.
func (w *Walker) Walk(ctx context.Context) ([]PostReference, WalkState, error) {
	var refs []PostReference
	url := w.cfg.BaseURL
	state := WalkHasNextPage

	for state == WalkHasNextPage {
		if err := ctx.Err(); err != nil {
			return refs, state, err
		}

		markup, err := w.fetcher.Fetch(ctx, url)
		if err != nil {
			return refs, state, fmt.Errorf("fetch listing page %s: %w", url, err)
		}
		listing, err := w.parser.ParseListing(markup)
		if err != nil {
			return refs, state, fmt.Errorf("parse listing page %s: %w", url, err)
		}

		for _, entry := range listing.Entries {
			if w.cfg.MaxPosts > 0 && len(refs) >= w.cfg.MaxPosts {
				state = WalkLimitReached
				break
			}
			refs = append(refs, PostReference{
				ID:        entry.ID,
				URL:       entry.URL,
				Discovery: len(refs),
			})
		}

		w.logger.Debug("listing page walked",
			zap.String("url", url),
			zap.Int("entries", len(listing.Entries)),
			zap.Int("total", len(refs)),
		)
		if w.onPage != nil {
			w.onPage(url)
		}
		if state == WalkLimitReached {
			break
		}
		if len(listing.Entries) == 0 || listing.NextURL == "" {
			state = WalkExhausted
			break
		}
		url = listing.NextURL
	}

	w.logger.Info("pagination walk finished",
		zap.String("state", string(state)),
		zap.Int("discovered", len(refs)),
	)
	return refs, state, nil
}
