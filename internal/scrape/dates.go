package scrape

import (
	"strings"
	"time"
)

// Formats the listing is known to use, tried in this order. Slash dates are
// month-first; that matches how the site writes them.
var dateFormats = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"01/02/2006",
	"2-Jan-2006",
}

var (
	minPlausibleDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxPlausibleDate = time.Date(2030, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// ParseDate parses a free-form date string, trying each known format in
// order and stopping at the first match. A match outside 2000-2030 is
// reported as absent: the listing occasionally carries garbage years and
// dropping them beats skewing the aggregates.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Before(minPlausibleDate) || t.After(maxPlausibleDate) {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
