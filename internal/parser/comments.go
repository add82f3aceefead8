package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/y2cl/ljextractor/internal/harvest"
)

var threadIDRe = regexp.MustCompile(`thread=(\d+)`)

// parseComments builds the comment forest from the page's nesting
// convention: each div.comment-thread container holds one div.comment-inner
// plus nested div.comment-thread containers for its direct replies. The
// second return value lists IDs of comments whose declared parent link does
// not resolve within the forest; those stay attached where nesting put them.
func (p *LJParser) parseComments(doc *goquery.Document) ([]*harvest.CommentNode, []string) {
	roots := doc.Find("div.comment-thread").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered("div.comment-thread").Length() == 0
	})

	var (
		forest   []*harvest.CommentNode
		counter  int
		declared = make(map[string]string)
	)
	roots.Each(func(i int, s *goquery.Selection) {
		if node := p.parseThread(s, "", i, &counter, declared); node != nil {
			forest = append(forest, node)
		}
	})

	ids := make(map[string]bool)
	collectIDs(forest, ids)
	var dangling []string
	for id, parent := range declared {
		if parent != "" && !ids[parent] {
			dangling = append(dangling, id)
		}
	}
	sort.Strings(dangling)
	return forest, dangling
}

// parseThread extracts one comment and recurses into its nested replies.
func (p *LJParser) parseThread(s *goquery.Selection, parentID string, ordinal int, counter *int, declared map[string]string) *harvest.CommentNode {
	inner := s.Find("div.comment-inner").FilterFunction(func(_ int, c *goquery.Selection) bool {
		return sameNode(c.Closest("div.comment-thread"), s)
	}).First()
	if inner.Length() == 0 {
		return nil
	}

	*counter++
	node := &harvest.CommentNode{
		ParentID: parentID,
		Ordinal:  ordinal,
		Author:   "Unknown Author",
	}

	if author := inner.Find("span.ljuser").First(); author.Length() > 0 {
		if text := strings.TrimSpace(author.Text()); text != "" {
			node.Author = text
		}
		if href, ok := author.Find("a.i-ljuser-profile").First().Attr("href"); ok {
			node.ProfileURL = href
		}
	}

	if marker := inner.Find("abbr.comment-datetime").First(); marker.Length() > 0 {
		raw, ok := marker.Attr("title")
		if !ok || strings.TrimSpace(raw) == "" {
			raw = marker.Text()
		}
		if posted, err := parseDateTime(raw); err == nil {
			node.Posted = posted
		}
	}

	if permalink, ok := inner.Find("div.comment-links a.permalink").First().Attr("href"); ok {
		if m := threadIDRe.FindStringSubmatch(permalink); m != nil {
			node.ID = m[1]
		}
	}
	if node.ID == "" {
		node.ID = "c" + strconv.Itoa(*counter)
	}

	if body := inner.Find("div.comment-body").First(); body.Length() > 0 {
		if html, err := body.Html(); err == nil {
			node.Body = strings.TrimSpace(html)
		}
	}

	// An explicit "Parent" link declares the reply target. Nesting stays
	// authoritative for tree shape; the declaration is only checked for
	// resolvability.
	inner.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.Contains(a.Text(), "Parent") {
			return true
		}
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		if m := threadIDRe.FindStringSubmatch(href); m != nil {
			declared[node.ID] = m[1]
			return false
		}
		return true
	})

	children := s.Find("div.comment-thread").FilterFunction(func(_ int, c *goquery.Selection) bool {
		return sameNode(c.ParentsFiltered("div.comment-thread").First(), s)
	})
	children.Each(func(i int, c *goquery.Selection) {
		if child := p.parseThread(c, node.ID, i, counter, declared); child != nil {
			node.Replies = append(node.Replies, child)
		}
	})
	return node
}

func sameNode(a, b *goquery.Selection) bool {
	return len(a.Nodes) > 0 && len(b.Nodes) > 0 && a.Nodes[0] == b.Nodes[0]
}

func collectIDs(nodes []*harvest.CommentNode, ids map[string]bool) {
	for _, n := range nodes {
		ids[n.ID] = true
		collectIDs(n.Replies, ids)
	}
}
