package crawler

import (
	"fmt"
	"strconv"
	"strings"

	"artworks/crawler/internal/domain/task"

	log "github.com/sirupsen/logrus"
)

// Paginator turns a category's item count into one task per listing page
type Paginator struct {
	pageSize    int
	countSuffix string
}

func NewPaginator(rules Rules) *Paginator {
	pageSize := rules.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Paginator{
		pageSize:    pageSize,
		countSuffix: rules.ItemCountSuffix,
	}
}

// Paginate emits total/pageSize+1 listing page tasks. An empty category still
// yields page 0, which simply holds no item links.
func (p *Paginator) Paginate(page *Page, t *task.PaginationTask) ([]task.Task, error) {
	total, err := p.ItemCount(page)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", t.CategoryURL, err)
	}

	pageCount := p.PageCount(total)
	tasks := make([]task.Task, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		pageURL, err := t.PageURL(i)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, &task.ListingPageTask{
			PageURL:   pageURL,
			PageIndex: i,
			Trail:     t.Trail.Clone(),
		})
	}

	log.Debugf("Category %s has %d items across %d pages", t.CategoryURL, total, pageCount)
	return tasks, nil
}

func (p *Paginator) PageCount(total int) int {
	return total/p.pageSize + 1
}

// ItemCount reads the leading integer of labels such as "37 items". Whatever
// follows the digits ("items", "item", "results") is ignored.
func (p *Paginator) ItemCount(page *Page) (int, error) {
	label := page.Doc.Find(itemCountSelector).First()
	if label.Length() == 0 {
		return 0, fmt.Errorf("%w: no item count label", ErrMalformedCount)
	}

	text := strings.TrimSpace(label.Text())
	end := strings.IndexFunc(text, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		end = len(text)
	}
	if end == 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCount, label.Text())
	}

	total, err := strconv.Atoi(text[:end])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCount, label.Text())
	}

	if rest := strings.TrimSpace(text[end:]); rest != "" && !strings.HasPrefix(p.countSuffix, rest) {
		log.Debugf("Unexpected item count label %q, using %d", text, total)
	}
	return total, nil
}
