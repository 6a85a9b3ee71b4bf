package harvest

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor pulls the professor name, review comments and visible text out of HTML
// using CSS selectors.
type Extractor struct {
	nameSelector    string
	commentSelector string
}

func NewExtractor(nameSelector, commentSelector string) *Extractor {
	return &Extractor{nameSelector: nameSelector, commentSelector: commentSelector}
}

// Extract parses r. Blank comment nodes are dropped; the name is the trimmed text of
// every node matching the name selector.
func (e *Extractor) Extract(r io.Reader) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse html: %w", err)
	}

	page := Page{
		Name:     strings.TrimSpace(doc.Find(e.nameSelector).Text()),
		BodyText: doc.Find("body").Text(),
	}

	doc.Find(e.commentSelector).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			page.Comments = append(page.Comments, text)
		}
	})

	return page, nil
}
