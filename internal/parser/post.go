package parser

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/y2cl/ljextractor/internal/harvest"
)

// ParsePost extracts title, publish timestamp, body, and the comment forest
// from a post page. A malformed page yields a ParseError; a dangling comment
// parent is recoverable and leaves the orphan attached top-level.
func (p *LJParser) ParsePost(markup []byte, url string) (*harvest.PostRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, &harvest.ParseError{Kind: harvest.MalformedPost, URL: url, Detail: err.Error()}
	}

	content := doc.Find("div.asset-content").First()
	if content.Length() == 0 {
		return nil, &harvest.ParseError{Kind: harvest.MalformedPost, URL: url, Detail: "no post content block"}
	}

	title := strings.TrimSpace(doc.Find("h2.asset-name").First().Text())
	if title == "" {
		title = "No Title"
	}

	published, err := p.parsePostDate(doc)
	if err != nil {
		return nil, &harvest.ParseError{Kind: harvest.MalformedPost, URL: url, Detail: err.Error()}
	}

	body, err := content.Html()
	if err != nil {
		return nil, &harvest.ParseError{Kind: harvest.MalformedPost, URL: url, Detail: err.Error()}
	}

	comments, dangling := p.parseComments(doc)
	for _, id := range dangling {
		perr := &harvest.ParseError{Kind: harvest.DanglingCommentParent, URL: url, Detail: "comment " + id}
		p.logger.Warn("orphan comment subtree attached top-level",
			zap.String("url", url),
			zap.String("comment_id", id),
			zap.Error(perr),
		)
	}

	return &harvest.PostRecord{
		ID:        PostIDFromURL(url),
		Title:     title,
		URL:       url,
		Published: published,
		Body:      strings.TrimSpace(body),
		Comments:  comments,
	}, nil
}

// parsePostDate reads the post's own datetime marker, preferring the
// machine-friendly title attribute; comment datetimes are excluded.
func (p *LJParser) parsePostDate(doc *goquery.Document) (time.Time, error) {
	marker := doc.Find("abbr.datetime").Not(".comment-datetime").First()
	if marker.Length() == 0 {
		return time.Time{}, fmt.Errorf("no datetime marker")
	}
	raw, ok := marker.Attr("title")
	if !ok || strings.TrimSpace(raw) == "" {
		raw = marker.Text()
	}
	return parseDateTime(raw)
}
