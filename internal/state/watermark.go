// Package state persists the run watermark: the newest date_added
// successfully appended by any previous run, stored as one ISO date in a
// flat file. It is read once at run start as the default cutoff and
// written once at run end.
package state

import (
	"log"
	"os"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"

	// DefaultBackfillDays bounds the first run when no watermark exists
	// yet, so a fresh install doesn't try to crawl years of history.
	DefaultBackfillDays = 7
)

// Load reads the watermark file. ok is false when the file is missing or
// doesn't hold a parseable date.
func Load(path string) (time.Time, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(string(b)))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Save overwrites the watermark file with d.
func Save(path string, d time.Time) error {
	return os.WriteFile(path, []byte(d.Format(dateLayout)), 0o644)
}

// EnsureInitialized writes today's date when no watermark exists yet, so an
// empty first run still leaves a cutoff behind.
func EnsureInitialized(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Save(path, time.Now().UTC())
}

// ResolveSince picks the effective cutoff: an explicit override wins, then
// the persisted watermark, then a short backfill window.
func ResolveSince(explicit string, path string, backfillDays int) time.Time {
	if explicit != "" {
		if t, err := time.Parse(dateLayout, strings.TrimSpace(explicit)); err == nil {
			return t
		}
		log.Printf("[state] invalid --since %q, falling back to watermark", explicit)
	}
	if t, ok := Load(path); ok {
		return t
	}
	if backfillDays <= 0 {
		backfillDays = DefaultBackfillDays
	}
	return time.Now().UTC().AddDate(0, 0, -backfillDays)
}
