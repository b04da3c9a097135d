package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"gradcafe-engine/internal/fetch"
	"gradcafe-engine/internal/scrape/util"
)

// Entry is one listing-card hit: the detail link plus whatever the card
// itself said about when the result was added. CardDate is only an
// estimate; the detail page overrides it.
type Entry struct {
	DetailURL string
	CardText  string
	CardDate  time.Time // zero when the card had no parseable "Added on"
}

var cardAddedRe = regexp.MustCompile(`(?i)\bAdded on\s+([A-Za-z]+\s+\d{1,2},\s*\d{4})`)

// Walker paginates the listing endpoint and hands each discovered entry to
// a visit callback. Pagination is assumed reverse-chronological: once a
// fully scanned page yields nothing at or after the cutoff, every later
// page is older still and the walk stops.
type Walker struct {
	client  *fetch.Client
	limiter *util.HostLimiter
	listURL string
	cutoff  time.Time
}

func NewWalker(client *fetch.Client, limiter *util.HostLimiter, listURL string, cutoff time.Time) *Walker {
	return &Walker{client: client, limiter: limiter, listURL: listURL, cutoff: cutoff}
}

// Walk fetches listing pages starting at page 1. visit reports whether the
// entry qualified (resolved with a date at or after the cutoff); a page
// where nothing qualifies ends the walk. A fetch failure on the first page
// is fatal, anywhere later it just stops the walk.
func (w *Walker) Walk(ctx context.Context, visit func(context.Context, Entry) (bool, error)) error {
	page := 1
	for {
		pageURL := w.listURL
		if page > 1 {
			pageURL = fmt.Sprintf("%s?page=%d", w.listURL, page)
		}

		if err := w.limiter.WaitURL(ctx, pageURL); err != nil {
			return err
		}
		status, body, err := w.client.Get(ctx, pageURL)
		if err != nil {
			if page == 1 {
				return fmt.Errorf("listing page 1: %w", err)
			}
			log.Printf("[walker] page %d fetch failed: %v, stopping", page, err)
			return nil
		}
		if status != http.StatusOK {
			if page == 1 {
				return fmt.Errorf("listing page 1: HTTP %d", status)
			}
			log.Printf("[walker] HTTP %d on page %d, stopping", status, page)
			return nil
		}

		entries, err := parseListing(body, w.listURL)
		if err != nil {
			if page == 1 {
				return fmt.Errorf("listing page 1: %w", err)
			}
			log.Printf("[walker] page %d parse failed: %v, stopping", page, err)
			return nil
		}
		if len(entries) == 0 {
			log.Printf("[walker] no entry links on page %d, stopping", page)
			return nil
		}

		pageHadNew := false
		for _, e := range entries {
			// cheap skip before the detail fetch
			if !e.CardDate.IsZero() && e.CardDate.Before(w.cutoff) {
				continue
			}
			ok, err := visit(ctx, e)
			if err != nil {
				return err
			}
			if ok {
				pageHadNew = true
			}
		}

		if !pageHadNew {
			log.Printf("[walker] no qualifying entries on page %d, stopping", page)
			return nil
		}

		log.Printf("[walker] finished page %d", page)
		page++
	}
}

// parseListing finds the per-entry "See More" anchors and pairs each with
// the text of its enclosing card.
func parseListing(body []byte, baseURL string) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	var entries []Entry
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if !strings.Contains(a.Text(), "See More") {
			return
		}
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		detailURL := util.AbsoluteURL(baseURL, href)
		if detailURL == "" {
			return
		}

		card := a.Closest("article, li, div, section")
		cardText := util.CleanText(card.Text())
		if cardText == "" {
			cardText = util.CleanText(a.Parent().Text())
		}

		var cardDate time.Time
		if m := cardAddedRe.FindStringSubmatch(cardText); m != nil {
			if d, ok := ParseDate(m[1]); ok {
				cardDate = d
			}
		}

		entries = append(entries, Entry{
			DetailURL: detailURL,
			CardText:  cardText,
			CardDate:  cardDate,
		})
	})

	return entries, nil
}
