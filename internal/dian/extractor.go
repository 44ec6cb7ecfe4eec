package dian

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nexconsult/dian-api/internal/browser"
	"github.com/nexconsult/dian-api/internal/models"
)

// Extract reads the current page and returns its event rows. Read failures yield an empty list.
func Extract(ctx context.Context, page browser.Session) []models.EventRecord {
	html, err := page.Content(ctx)
	if err != nil {
		return []models.EventRecord{}
	}
	return ExtractHTML(html)
}

// ExtractHTML maps every table row with at least two cells onto an EventRecord,
// positionally and in document order. Rows without a code are dropped. The mapping
// depends on the column order of the remote table and breaks silently if it changes.
func ExtractHTML(html string) []models.EventRecord {
	events := []models.EventRecord{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return events
	}

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < 2 {
			return
		}
		cell := func(i int) string {
			if i >= cells.Length() {
				return ""
			}
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		record := models.EventRecord{
			Code:          cell(0),
			Description:   cell(1),
			Date:          cell(2),
			IssuerID:      cell(3),
			IssuerName:    cell(4),
			RecipientID:   cell(5),
			RecipientName: cell(6),
		}
		if record.Code == "" {
			return
		}
		events = append(events, record)
	})

	return events
}
