package store

import (
	"context"
	"database/sql"
	"math"
	"regexp"
	"strings"
	"time"
)

// The analysis window the dashboard reports on (the Fall 2025 cycle).
var (
	fallStart = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	fallEnd   = time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC)
)

// Stats is the aggregate block behind the dashboard's Analysis page.
// Pointer fields are nil when no rows contributed (AVG over nothing).
type Stats struct {
	TotalRows       int        `json:"total_rows"`
	LatestDateAdded string     `json:"latest_date_added,omitempty"`
	FallEntries     int        `json:"fall_entries"`
	PctInternational float64   `json:"pct_international"`
	AvgGPA          *float64   `json:"avg_gpa,omitempty"`
	AvgGREQuant     *float64   `json:"avg_gre_quant,omitempty"`
	AvgGREVerbal    *float64   `json:"avg_gre_verbal,omitempty"`
	AvgGREWriting   *float64   `json:"avg_gre_writing,omitempty"`
	AvgGPAAmericanFall *float64 `json:"avg_gpa_american_fall,omitempty"`
	PctAcceptFall   float64    `json:"pct_accept_fall"`
	AvgGPAAcceptFall *float64  `json:"avg_gpa_accept_fall,omitempty"`
	ComputedAt      time.Time  `json:"computed_at"`
}

var (
	statusTypeRe = regexp.MustCompile(`^([^0-9]+)`)
	statusDateRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4})`)
)

// statusDate pulls the decision date out of the raw status text
// ("Accepted on 01/20/2025"). Slash dates are month-first, matching the
// scraper's format order.
func statusDate(status string) (time.Time, bool) {
	m := statusDateRe.FindStringSubmatch(status)
	if m == nil {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "01/02/2006"} {
		if t, err := time.Parse(layout, m[1]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func statusType(status string) string {
	m := statusTypeRe.FindStringSubmatch(status)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ComputeStats runs the whole aggregate block in one pass. Plain averages
// come straight from SQL; the window metrics need the status text parsed,
// which sqlite can't do, so those rows are folded in Go.
func ComputeStats(ctx context.Context, db *sql.DB) (Stats, error) {
	var st Stats
	st.ComputedAt = time.Now().UTC()

	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applicants;`).Scan(&st.TotalRows); err != nil {
		return st, err
	}
	if latest, err := LatestDateAdded(ctx, db); err == nil && !latest.IsZero() {
		st.LatestDateAdded = latest.Format(dateLayout)
	}

	row := db.QueryRowContext(ctx, `
SELECT AVG(gpa), AVG(gre), AVG(gre_v), AVG(gre_aw)
FROM applicants;`)
	var gpa, q, v, aw sql.NullFloat64
	if err := row.Scan(&gpa, &q, &v, &aw); err != nil {
		return st, err
	}
	st.AvgGPA = round2(gpa)
	st.AvgGREQuant = round2(q)
	st.AvgGREVerbal = round2(v)
	st.AvgGREWriting = round2(aw)

	var international int
	if err := db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM applicants
WHERE COALESCE(us_or_international,'') NOT LIKE 'American'
  AND COALESCE(us_or_international,'') NOT LIKE 'Other';`).Scan(&international); err != nil {
		return st, err
	}
	if st.TotalRows > 0 {
		st.PctInternational = pct(international, st.TotalRows)
	}

	rows, err := db.QueryContext(ctx, `
SELECT COALESCE(status,''), COALESCE(us_or_international,''), gpa
FROM applicants
WHERE status IS NOT NULL;`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	var (
		accepts        int
		gpaAmerSum     float64
		gpaAmerN       int
		gpaAcceptSum   float64
		gpaAcceptN     int
	)
	for rows.Next() {
		var status, citizenship string
		var rowGPA sql.NullFloat64
		if err := rows.Scan(&status, &citizenship, &rowGPA); err != nil {
			return st, err
		}
		d, ok := statusDate(status)
		if !ok || d.Before(fallStart) || d.After(fallEnd) {
			continue
		}
		st.FallEntries++

		accepted := statusType(status) == "Accepted on"
		if accepted {
			accepts++
			if rowGPA.Valid {
				gpaAcceptSum += rowGPA.Float64
				gpaAcceptN++
			}
		}
		if strings.EqualFold(citizenship, "American") && rowGPA.Valid {
			gpaAmerSum += rowGPA.Float64
			gpaAmerN++
		}
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	if st.FallEntries > 0 {
		st.PctAcceptFall = pct(accepts, st.FallEntries)
	}
	if gpaAmerN > 0 {
		st.AvgGPAAmericanFall = ptr(round(gpaAmerSum / float64(gpaAmerN)))
	}
	if gpaAcceptN > 0 {
		st.AvgGPAAcceptFall = ptr(round(gpaAcceptSum / float64(gpaAcceptN)))
	}

	return st, nil
}

func pct(part, whole int) float64 {
	return round(float64(part) * 100.0 / float64(whole))
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

func round2(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return ptr(round(n.Float64))
}

func ptr(f float64) *float64 { return &f }
