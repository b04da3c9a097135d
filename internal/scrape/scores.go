package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

// Scores holds the three GRE sub-scores pulled out of free text. A nil
// field means that sub-score was not found.
type Scores struct {
	Quant   *float64
	Verbal  *float64
	Writing *float64
}

func (s Scores) any() bool {
	return s.Quant != nil || s.Verbal != nil || s.Writing != nil
}

var (
	// labeled singletons: "Q: 170", "V=165", "AW 4.5", "Writing: 5.0"
	reQuantLabeled   = regexp.MustCompile(`(?i)\bQ\s*[:=]?\s*(\d{2,3})\b`)
	reVerbalLabeled  = regexp.MustCompile(`(?i)\bV\s*[:=]?\s*(\d{2,3})\b`)
	reWritingLabeled = regexp.MustCompile(`(?i)\b(?:AW|A\.?W\.?|W(?:riting)?)\s*[:=]?\s*([0-6](?:\.\d)?)\b`)

	// slash triples whose order comes from the parenthesized hint
	reTripleQVW = regexp.MustCompile(`(?i)\(Q/V/W\)\s*[:=]?\s*(\d{2,3})\s*/\s*(\d{2,3})\s*/\s*([0-6](?:\.\d)?)`)
	reTripleVQW = regexp.MustCompile(`(?i)\(V/Q/W\)\s*[:=]?\s*(\d{2,3})\s*/\s*(\d{2,3})\s*/\s*([0-6](?:\.\d)?)`)

	// compact suffix form: "170Q/165V/4.5W"
	reQuantSuffix   = regexp.MustCompile(`(?i)(\d{2,3})\s*Q\b`)
	reVerbalSuffix  = regexp.MustCompile(`(?i)(\d{2,3})\s*V\b`)
	reWritingSuffix = regexp.MustCompile(`(?i)([0-6](?:\.\d)?)\s*(?:AW|W)\b`)
)

// The strategies run in order; the first one that finds anything wins.
var scoreStrategies = []func(string) Scores{
	labeledScores,
	hintedTripleScores,
	suffixScores,
}

// ExtractScores scans a free-text blob for GRE quantitative, verbal, and
// analytical-writing scores.
func ExtractScores(text string) Scores {
	t := strings.Join(strings.Fields(text), " ")
	if t == "" {
		return Scores{}
	}
	for _, strategy := range scoreStrategies {
		if s := strategy(t); s.any() {
			return s
		}
	}
	return Scores{}
}

func labeledScores(t string) Scores {
	return Scores{
		Quant:   matchFloat(reQuantLabeled, t),
		Verbal:  matchFloat(reVerbalLabeled, t),
		Writing: matchFloat(reWritingLabeled, t),
	}
}

func hintedTripleScores(t string) Scores {
	if m := reTripleQVW.FindStringSubmatch(t); m != nil {
		return Scores{Quant: toFloat(m[1]), Verbal: toFloat(m[2]), Writing: toFloat(m[3])}
	}
	if m := reTripleVQW.FindStringSubmatch(t); m != nil {
		return Scores{Verbal: toFloat(m[1]), Quant: toFloat(m[2]), Writing: toFloat(m[3])}
	}
	return Scores{}
}

func suffixScores(t string) Scores {
	return Scores{
		Quant:   matchFloat(reQuantSuffix, t),
		Verbal:  matchFloat(reVerbalSuffix, t),
		Writing: matchFloat(reWritingSuffix, t),
	}
}

func matchFloat(re *regexp.Regexp, t string) *float64 {
	m := re.FindStringSubmatch(t)
	if m == nil {
		return nil
	}
	return toFloat(m[1])
}

func toFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}
