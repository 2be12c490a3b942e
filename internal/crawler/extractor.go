package crawler

import (
	"strings"

	"artworks/crawler/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// Extractor builds an ItemRecord from an item detail page
type Extractor struct {
	origin string
}

func NewExtractor(rules Rules) *Extractor {
	return &Extractor{origin: strings.TrimRight(rules.SiteOrigin, "/")}
}

func (e *Extractor) Extract(page *Page, trail domain.Trail) (*domain.ItemRecord, error) {
	doc := page.Doc

	title := strings.TrimSpace(doc.Find(itemTitleSelector).First().Text())
	if title == "" {
		return nil, &ExtractionError{URL: page.URL, Trail: trail.Clone(), Field: "title"}
	}

	imagePath, exists := doc.Find(itemImageSelector).First().Attr("src")
	imagePath = strings.TrimSpace(imagePath)
	if !exists || imagePath == "" {
		return nil, &ExtractionError{URL: page.URL, Trail: trail.Clone(), Field: "image"}
	}

	record := &domain.ItemRecord{
		URL:         page.URL,
		Title:       title,
		ImageURL:    e.imageURL(imagePath),
		Artist:      optionalText(doc.Find(itemArtistSelector)),
		Description: optionalText(doc.Find(itemDescriptionSel)),
		Trail:       trail.Clone(),
	}

	if raw := dimensionCell(doc); raw != "" {
		if dims, ok := ParseDimensions(raw); ok {
			record.Height = dims.Height
			record.Width = dims.Width
			record.Depth = dims.Depth
		} else {
			log.Debugf("Ignoring ambiguous dimensions %q on %s", raw, page.URL)
		}
	}

	return record, nil
}

func (e *Extractor) imageURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return e.origin + path
}

func optionalText(sel *goquery.Selection) *string {
	if sel.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(sel.First().Text())
	if text == "" {
		return nil
	}
	return &text
}

// dimensionCell returns the own text of the first cell whose own text holds the
// unit marker. Text inside nested elements is not considered.
func dimensionCell(doc *goquery.Document) string {
	var raw string
	doc.Find("td").EachWithBreak(func(i int, td *goquery.Selection) bool {
		if text := ownText(td); strings.Contains(text, DimensionUnitMarker) {
			raw = text
			return false
		}
		return true
	})
	return raw
}

func ownText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Contents().Each(func(i int, node *goquery.Selection) {
		if goquery.NodeName(node) == "#text" {
			b.WriteString(node.Text())
		}
	})
	return b.String()
}
