// Package parser extracts listing entries, posts, and comment forests from
// LiveJournal page markup using goquery.
package parser

import (
	"bytes"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/y2cl/ljextractor/internal/harvest"
)

// LJParser implements harvest.Parser for the stable LiveJournal markup
// conventions: asset blocks for posts, comment-thread nesting for replies.
type LJParser struct {
	logger *zap.Logger
}

// New builds an LJParser.
func New(logger *zap.Logger) *LJParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LJParser{logger: logger}
}

var postIDRe = regexp.MustCompile(`/(\d+)\.html`)

// ParseListing locates the repeating post-entry structure on a listing page.
// Entries missing optional fields (title, comment count) are kept as long as
// they carry a link; the "previous entries" control is the next page of the
// walk.
func (p *LJParser) ParseListing(markup []byte) (harvest.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return harvest.Listing{}, &harvest.ParseError{Kind: harvest.MalformedListing, Detail: err.Error()}
	}

	var listing harvest.Listing
	doc.Find("div.asset-header-content-inner").Each(func(_ int, header *goquery.Selection) {
		link := header.Find("h2.asset-name a").First()
		href, ok := link.Attr("href")
		if !ok {
			link = header.Find("a").First()
			href, ok = link.Attr("href")
		}
		if !ok || href == "" {
			p.logger.Debug("listing entry without link, skipping")
			return
		}
		listing.Entries = append(listing.Entries, harvest.ListingEntry{
			ID:    PostIDFromURL(href),
			URL:   href,
			Title: strings.TrimSpace(link.Text()),
		})
	})

	if href, ok := doc.Find("a.prev").First().Attr("href"); ok && href != "" {
		listing.NextURL = href
	}
	return listing, nil
}

// PostIDFromURL derives the platform-assigned identifier from a post URL:
// the numeric segment of ".../NNNNN.html", or the path base as a slug
// fallback.
func PostIDFromURL(url string) string {
	if m := postIDRe.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	base := path.Base(strings.TrimSuffix(strings.TrimRight(url, "/"), ".html"))
	if base == "." || base == "/" {
		return url
	}
	return base
}
