package store

import "database/sql"

// Migrate brings the schema up to the current version. The two llm_* columns
// are written by a downstream enrichment pass, never by the scraper; they
// exist here so the enrichment job has somewhere to land.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS applicants (
  p_id INTEGER PRIMARY KEY AUTOINCREMENT,
  program TEXT,
  comments TEXT,
  date_added TEXT,
  url TEXT NOT NULL,
  status TEXT,
  term TEXT,
  us_or_international TEXT,
  gpa REAL,
  gre REAL,
  gre_v REAL,
  gre_aw REAL,
  degree TEXT,
  llm_generated_program TEXT,
  llm_generated_university TEXT
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_applicants_url
ON applicants(url);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_applicants_date_added
ON applicants(date_added);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}
