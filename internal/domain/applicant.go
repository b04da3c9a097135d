package domain

import "time"

// Applicant is one normalized admissions-result record scraped from a
// detail page. URL is the business key; everything else is best-effort.
type Applicant struct {
	Program     string     // "<program>, <institution>" when both are known
	Comments    string
	DateAdded   time.Time // zero means no usable "Added on" date was found
	URL         string
	Status      string // raw decision + notification text, e.g. "Accepted on 01/20/2025"
	Term        string // e.g. "Fall 2025"
	Citizenship string // American / International / Other as reported
	Degree      string
	GPA         *float64
	GREQuant    *float64
	GREVerbal   *float64
	GREWriting  *float64
}
