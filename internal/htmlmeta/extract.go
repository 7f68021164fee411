// Package htmlmeta pulls SEO metadata out of HTML documents.
package htmlmeta

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Metadata is the triple of page fields a check records. Empty strings mean
// the field was absent from the document.
type Metadata struct {
	Title       string
	H1          string
	Description string
}

// Extract parses body and returns whatever metadata it can locate. Malformed
// or empty input degrades to partial or zero-value Metadata; it never fails.
func Extract(body []byte) Metadata {
	var meta Metadata

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return meta
	}

	meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	meta.H1 = strings.TrimSpace(doc.Find("h1").First().Text())

	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(s.AttrOr("name", ""), "description") {
			return true
		}
		meta.Description = strings.TrimSpace(s.AttrOr("content", ""))
		return false
	})

	return meta
}
