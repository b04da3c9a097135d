package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills defaults and returns a normalized copy plus
// everything wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	// defaults
	if out.App.Port == 0 {
		out.App.Port = 38472
	}
	if out.App.DataDir == "" {
		out.App.DataDir = "."
	}
	if out.Source.DelayMS == 0 {
		out.Source.DelayMS = 350
	}
	if out.Source.RetryMax == 0 {
		out.Source.RetryMax = 3
	}
	if out.Source.ConnectTimeoutMS == 0 {
		out.Source.ConnectTimeoutMS = 5000
	}
	if out.Source.ReadTimeoutMS == 0 {
		out.Source.ReadTimeoutMS = 12000
	}
	if out.Scrape.BackfillDays == 0 {
		out.Scrape.BackfillDays = 7
	}
	out.Source.ListURL = strings.TrimSpace(out.Source.ListURL)
	out.Scrape.Since = strings.TrimSpace(out.Scrape.Since)

	// validation
	if out.App.Port < 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if out.Source.ListURL == "" {
		res.addErr("source.list_url is required")
	} else if u, err := url.Parse(out.Source.ListURL); err != nil || u.Scheme == "" || u.Host == "" {
		res.addErr("source.list_url must be an absolute URL")
	}
	if out.Source.DelayMS < 0 {
		res.addErr("source.delay_ms must be >= 0")
	} else if out.Source.DelayMS < 100 {
		res.addWarn("source.delay_ms is very low (%d); the upstream may rate-limit you.", out.Source.DelayMS)
	}
	if out.Source.RetryMax < 0 {
		res.addErr("source.retry_max must be >= 0")
	}
	if out.Scrape.BackfillDays < 0 {
		res.addErr("scrape.backfill_days must be >= 0")
	}
	if out.Scrape.Since != "" {
		if _, err := time.Parse("2006-01-02", out.Scrape.Since); err != nil {
			res.addErr("scrape.since must be YYYY-MM-DD, got %q", out.Scrape.Since)
		}
	}
	if out.Polling.PullSeconds < 0 {
		res.addErr("polling.pull_seconds must be >= 0")
	} else if out.Polling.PullSeconds > 0 && out.Polling.PullSeconds < 60 {
		res.addWarn("polling.pull_seconds is very low (%d) for a full crawl.", out.Polling.PullSeconds)
	}

	return out, res
}
