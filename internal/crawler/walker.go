package crawler

import (
	"strings"

	"artworks/crawler/internal/domain"
	"artworks/crawler/internal/domain/task"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// Walker discovers the category tree below the configured target categories.
// It never fetches anything: each call turns one parsed page into follow-up tasks.
type Walker struct {
	targets     TargetSet
	titlePrefix string
}

func NewWalker(rules Rules) *Walker {
	return &Walker{
		targets:     rules.Targets,
		titlePrefix: rules.CategoryTitlePrefix,
	}
}

// WalkRoot starts a trail for every top-level category that is a target.
func (w *Walker) WalkRoot(page *Page) []task.Task {
	var tasks []task.Task
	for _, node := range w.subcategories(page) {
		if !w.targets.Contains(node.Name) {
			log.Debugf("Skipping category %q: not a target", node.Name)
			continue
		}

		log.Infof("🎯 Matched target category %q", node.Name)
		tasks = append(tasks, &task.WalkTask{
			CategoryURL: node.URL,
			Trail:       domain.NewTrail(node.Name),
		})
	}
	return tasks
}

// WalkCategory handles a descended category page reached with trail.
func (w *Walker) WalkCategory(page *Page, trail domain.Trail) []task.Task {
	var tasks []task.Task

	title := w.CategoryTitle(page)
	isTarget := w.targets.Contains(title)

	// A matched category can list items of its own next to its subcategories
	if isTarget {
		tasks = append(tasks, &task.PaginationTask{
			CategoryURL: page.URL,
			Trail:       trail.Clone(),
		})
	}

	children := w.subcategories(page)
	for _, child := range children {
		childTrail := trail.Extend(child.Name)
		tasks = append(tasks,
			&task.WalkTask{CategoryURL: child.URL, Trail: childTrail},
			&task.PaginationTask{CategoryURL: child.URL, Trail: childTrail.Clone()},
		)
	}

	if len(children) == 0 && !isTarget {
		tasks = append(tasks, &task.PaginationTask{
			CategoryURL: page.URL,
			Trail:       trail.Clone(),
		})
	}

	log.Debugf("Walked %s (%q): %d subcategories, %d tasks", page.URL, title, len(children), len(tasks))
	return tasks
}

// CategoryTitle reads the page heading and strips the fixed label before the
// category name. Headings without the label are returned trimmed but unchanged.
func (w *Walker) CategoryTitle(page *Page) string {
	heading := strings.TrimSpace(page.Doc.Find(categoryHeadingSel).First().Text())
	if w.titlePrefix != "" && strings.HasPrefix(heading, w.titlePrefix) {
		heading = heading[len(w.titlePrefix):]
	}
	return strings.TrimSpace(heading)
}

func (w *Walker) subcategories(page *Page) []domain.CategoryNode {
	var nodes []domain.CategoryNode
	page.Doc.Find(subcategorySelector).Each(func(i int, a *goquery.Selection) {
		href, exists := a.Attr("href")
		name := strings.TrimSpace(a.Find(subcategoryNameSel).First().Text())
		if !exists || name == "" {
			return
		}

		link, err := page.Resolve(href)
		if err != nil {
			log.Warnf("Skipping category %q on %s: %v", name, page.URL, err)
			return
		}

		nodes = append(nodes, domain.CategoryNode{Name: name, URL: link})
	})
	return nodes
}
