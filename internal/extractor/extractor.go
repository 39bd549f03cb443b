package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/listing-watcher/internal/domain"
)

const (
	listingRowSelector = "div.list-row-v2"
	saveButtonSelector = "div.advert-controls-save-v2"
)

// Extractor parses rendered search-result HTML into listing records.
type Extractor struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns every parseable listing on the page, in document order.
// Rows missing the site-assigned id are dropped; only a document-level
// parse failure is an error.
func (e *Extractor) Extract(html string) ([]domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var listings []domain.Listing
	doc.Find(listingRowSelector).Each(func(_ int, row *goquery.Selection) {
		listing, ok := e.parseRow(row)
		if !ok {
			return
		}
		listings = append(listings, listing)
	})
	return listings, nil
}

func (e *Extractor) parseRow(row *goquery.Selection) (domain.Listing, bool) {
	id, exists := row.Find(saveButtonSelector).First().Attr("data-id")
	if !exists || id == "" {
		e.logger.Debug("dropping listing row without data-id")
		return domain.Listing{}, false
	}

	text := func(selector string) string {
		return strings.TrimSpace(row.Find(selector).First().Text())
	}

	return domain.Listing{
		ID:          id,
		URL:         stripQuery(row.Find("a[href]").First().AttrOr("href", "")),
		Address:     e.parseAddress(row),
		Distance:    text("span.accent"),
		Price:       text("span.list-item-price-v2"),
		PricePerM2:  text("span.price-pm-v2"),
		Rooms:       text("div.list-RoomNum-v2"),
		Area:        text("div.list-AreaOverall-v2"),
		Floor:       text("div.list-Floors-v2"),
		PriceChange: text("div.price-change"),
		PetFriendly: row.Find("div.pet_friendly_info").Length() > 0,
	}, true
}

// parseAddress joins the address heading's text fragments, skipping the
// distance annotation the site injects into the same element. Each text
// node counts as one fragment regardless of nesting depth.
func (e *Extractor) parseAddress(row *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, node *goquery.Selection) {
			if goquery.NodeName(node) != "#text" {
				walk(node)
				return
			}
			part := strings.TrimSpace(node.Text())
			if part == "" || strings.Contains(part, "км до точки") {
				return
			}
			parts = append(parts, part)
		})
	}
	walk(row.Find("div.list-adress-v2 h3").First())
	return strings.Join(parts, ", ")
}

func stripQuery(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}
