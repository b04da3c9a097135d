package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gradcafe-engine/internal/domain"
)

const dateLayout = "2006-01-02"

// InsertApplicantIfNew appends one record, keyed by url. A url already in
// the table is silently ignored; that is the whole dedup story across
// overlapping runs. Returns whether a row was actually inserted.
func InsertApplicantIfNew(ctx context.Context, db *sql.DB, a domain.Applicant) (bool, error) {
	if a.URL == "" {
		return false, errors.New("missing url")
	}

	var dateAdded any
	if !a.DateAdded.IsZero() {
		dateAdded = a.DateAdded.Format(dateLayout)
	}

	res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO applicants
(program, comments, date_added, url, status, term, us_or_international,
 gpa, gre, gre_v, gre_aw, degree, llm_generated_program, llm_generated_university)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,NULL,NULL);`,
		nullString(a.Program),
		nullString(a.Comments),
		dateAdded,
		a.URL,
		nullString(a.Status),
		nullString(a.Term),
		nullString(a.Citizenship),
		a.GPA,
		a.GREQuant,
		a.GREVerbal,
		a.GREWriting,
		nullString(a.Degree),
	)
	if err != nil {
		return false, fmt.Errorf("insert applicant: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CountApplicants reports the total number of stored records.
func CountApplicants(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applicants;`).Scan(&n)
	return n, err
}

// LatestDateAdded returns the most recent date_added on file, or a zero
// time when the table is empty or holds no dates.
func LatestDateAdded(ctx context.Context, db *sql.DB) (time.Time, error) {
	var s sql.NullString
	err := db.QueryRowContext(ctx, `SELECT MAX(date_added) FROM applicants;`).Scan(&s)
	if err != nil {
		return time.Time{}, err
	}
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
