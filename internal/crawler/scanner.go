package crawler

import (
	"strings"

	"artworks/crawler/internal/domain"
	"artworks/crawler/internal/domain/task"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// ItemScanner collects item links from a listing page
type ItemScanner struct {
	pathPrefix string
}

func NewItemScanner(rules Rules) *ItemScanner {
	return &ItemScanner{pathPrefix: rules.ItemPathPrefix}
}

func (s *ItemScanner) Scan(page *Page, trail domain.Trail) []task.Task {
	var tasks []task.Task
	page.Doc.Find(itemLinkSelector).Each(func(i int, a *goquery.Selection) {
		href, exists := a.Attr("href")
		if !exists || !strings.HasPrefix(href, s.pathPrefix) {
			return
		}

		itemURL, err := page.Resolve(href)
		if err != nil {
			log.Warnf("Skipping item link on %s: %v", page.URL, err)
			return
		}

		tasks = append(tasks, &task.ItemPageTask{
			ItemURL: itemURL,
			Trail:   trail.Clone(),
		})
	})

	log.Debugf("Found %d item links on %s", len(tasks), page.URL)
	return tasks
}
