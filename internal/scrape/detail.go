package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"gradcafe-engine/internal/domain"
	"gradcafe-engine/internal/fetch"
	"gradcafe-engine/internal/scrape/util"
)

// Resolver turns a listing entry into a normalized record by fetching its
// detail page. A nil record with a nil error means the entry was dropped
// (fetch failure, no usable date, or older than the cutoff); an overlapping
// next run picks those up again, and the unique-URL sink makes the retry
// safe.
type Resolver struct {
	client  *fetch.Client
	limiter *util.HostLimiter
	cutoff  time.Time
}

func NewResolver(client *fetch.Client, limiter *util.HostLimiter, cutoff time.Time) *Resolver {
	return &Resolver{client: client, limiter: limiter, cutoff: cutoff}
}

func (r *Resolver) Resolve(ctx context.Context, e Entry) (*domain.Applicant, error) {
	if err := r.limiter.WaitURL(ctx, e.DetailURL); err != nil {
		return nil, err
	}
	status, body, err := r.client.Get(ctx, e.DetailURL)
	if err != nil {
		log.Printf("[detail] fetch failed url=%q err=%v", e.DetailURL, err)
		return nil, nil
	}
	if status != http.StatusOK {
		log.Printf("[detail] HTTP %d url=%q", status, e.DetailURL)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse detail %s: %w", e.DetailURL, err)
	}
	fields := ExtractFields(doc)

	// The detail page's own "Added on" beats the card estimate.
	dateAdded, ok := ParseDate(fields["added on"])
	if !ok {
		dateAdded = e.CardDate
	}
	if dateAdded.IsZero() {
		log.Printf("[detail] no usable date, dropping url=%q", e.DetailURL)
		return nil, nil
	}
	if dateAdded.Before(r.cutoff) {
		return nil, nil
	}

	program := fields["program"]
	institution := fields["institution"]
	combined := program
	switch {
	case program != "" && institution != "":
		combined = program + ", " + institution
	case program == "":
		combined = institution
	}

	decision := fields["decision"]
	notification := fields["notification"]
	statusText := decision
	if decision != "" && notification != "" {
		statusText = decision + " " + notification
	}

	comments := fields["notes"]

	quant := parseFloat(fields["gre general"])
	verbal := parseFloat(fields["gre verbal"])
	writing := parseFloat(fields["analytical writing"])
	if quant == nil || verbal == nil || writing == nil {
		// fall back to free-text extraction over anything that might
		// carry an inline score
		blob := joinNonEmpty(" | ",
			program, institution, decision, notification, comments,
			fields["test scores"], fields["additional info"], fields["score"],
		)
		s := ExtractScores(blob)
		if quant == nil {
			quant = s.Quant
		}
		if verbal == nil {
			verbal = s.Verbal
		}
		if writing == nil {
			writing = s.Writing
		}
	}

	return &domain.Applicant{
		Program:     combined,
		Comments:    comments,
		DateAdded:   dateAdded,
		URL:         util.CanonicalURL(e.DetailURL),
		Status:      statusText,
		Term:        fields["term"],
		Citizenship: fields["degree's country of origin"],
		Degree:      fields["degree type"],
		GPA:         parseFloat(fields["undergrad gpa"]),
		GREQuant:    quant,
		GREVerbal:   verbal,
		GREWriting:  writing,
	}, nil
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
