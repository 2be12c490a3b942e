package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a fetched and parsed document together with the URL it was served from
type Page struct {
	URL string
	Doc *goquery.Document
}

// NewPage parses an HTML body served from pageURL.
func NewPage(pageURL string, body io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", pageURL, err)
	}
	return &Page{URL: pageURL, Doc: doc}, nil
}

// NewPageFromString is a convenience wrapper around NewPage.
func NewPageFromString(pageURL, html string) (*Page, error) {
	return NewPage(pageURL, strings.NewReader(html))
}

// Resolve turns an href found on the page into an absolute URL.
func (p *Page) Resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", href, err)
	}
	base, err := url.Parse(p.URL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL %q: %w", p.URL, err)
	}
	return base.ResolveReference(ref).String(), nil
}
