package scrape

import (
	"context"
	"database/sql"
	"log"
	"time"

	"gradcafe-engine/internal/config"
	"gradcafe-engine/internal/fetch"
	"gradcafe-engine/internal/scrape/util"
	"gradcafe-engine/internal/store"
)

// RunOnce walks the listing from page 1, resolves each qualifying entry,
// and appends new records. Everything is sequential: one page, then its
// detail pages one at a time, the limiter pacing every request. Returns
// how many records were appended and the newest date_added seen among
// them; the caller persists that as the next run's watermark.
func RunOnce(ctx context.Context, db *sql.DB, cfg config.Config, since time.Time, onAppended func()) (added int, maxDate time.Time, err error) {
	client := fetch.New(fetch.Config{
		UserAgent:      cfg.Source.UserAgent,
		ConnectTimeout: time.Duration(cfg.Source.ConnectTimeoutMS) * time.Millisecond,
		ReadTimeout:    time.Duration(cfg.Source.ReadTimeoutMS) * time.Millisecond,
		RetryMax:       cfg.Source.RetryMax,
	})
	limiter := util.NewHostLimiter(time.Duration(cfg.Source.DelayMS) * time.Millisecond)

	walker := NewWalker(client, limiter, cfg.Source.ListURL, since)
	resolver := NewResolver(client, limiter, since)

	log.Printf("[scrape] starting, cutoff=%s", since.Format("2006-01-02"))

	err = walker.Walk(ctx, func(ctx context.Context, e Entry) (bool, error) {
		rec, err := resolver.Resolve(ctx, e)
		if err != nil {
			return false, err
		}
		if rec == nil {
			return false, nil
		}

		// Qualifying is decided by date alone. An already-stored record
		// still counts, so an overlapping re-run keeps paginating past
		// pages of duplicates and reaches anything it missed last time.
		inserted, err := store.InsertApplicantIfNew(ctx, db, *rec)
		if err != nil {
			log.Printf("[scrape] insert error url=%q err=%v", rec.URL, err)
			return true, nil
		}
		if inserted {
			if maxDate.IsZero() || rec.DateAdded.After(maxDate) {
				maxDate = rec.DateAdded
			}
			added++
			if onAppended != nil {
				onAppended()
			}
		}
		return true, nil
	})
	if err != nil {
		return added, maxDate, err
	}

	log.Printf("[scrape] done, appended=%d", added)
	return added, maxDate, nil
}
