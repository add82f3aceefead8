package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var ordinalSuffixRe = regexp.MustCompile(`(\d+)(st|nd|rd|th)`)

// dateLayouts are the datetime renderings LiveJournal themes produce for
// posts and comments.
var dateLayouts = []string{
	"Jan. 2, 2006 at 3:04 PM",
	"January 2, 2006 at 3:04 PM",
	"2 January 2006 at 3:04 PM",
	"01/02/2006 3:04 PM",
	"Jan. 2, 2006 3:04 PM",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseDateTime normalizes a LiveJournal datetime string and parses it.
// Ordinal day suffixes are stripped, a trailing "(UTC)" marker is dropped,
// whitespace is collapsed, and seconds are zeroed.
func parseDateTime(raw string) (time.Time, error) {
	s := strings.ReplaceAll(raw, "(UTC)", "")
	s = ordinalSuffixRe.ReplaceAllString(s, "$1")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return t.Truncate(time.Minute), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", raw)
}
