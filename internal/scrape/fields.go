package scrape

import (
	"github.com/PuerkitoBio/goquery"

	"gradcafe-engine/internal/scrape/util"
)

// FieldMap maps a normalized label ("undergrad gpa") to its cleaned value.
type FieldMap map[string]string

// ExtractFields walks every <dt>/<dd> pair in the document, in document
// order, across all definition blocks. Labels are normalized via
// util.NormLabel; a pair is kept only when both sides are non-empty after
// cleanup. Duplicate labels: last one wins.
func ExtractFields(doc *goquery.Document) FieldMap {
	fields := make(FieldMap)

	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		dd := dt.NextAllFiltered("dd").First()
		if dd.Length() == 0 {
			return
		}
		label := util.NormLabel(dt.Text())
		value := util.CleanText(dd.Text())
		if label == "" || value == "" {
			return
		}
		fields[label] = value
	})

	return fields
}
