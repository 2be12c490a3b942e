package task

import (
	"fmt"
	"net/url"
	"strconv"

	"artworks/crawler/internal/domain"
)

// PageQueryParam is the query parameter carrying the zero-based listing page index.
const PageQueryParam = "page"

// PaginationTask reads a category's item count and fans out into listing pages
type PaginationTask struct {
	CategoryURL string       `json:"category_url"`
	Trail       domain.Trail `json:"trail"`
}

func (t *PaginationTask) TaskType() string {
	return TypePagination
}

func (t *PaginationTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}

// PageURL fills the category URL template with the given page index.
func (t *PaginationTask) PageURL(index int) (string, error) {
	u, err := url.Parse(t.CategoryURL)
	if err != nil {
		return "", fmt.Errorf("invalid category URL %q: %w", t.CategoryURL, err)
	}
	q := u.Query()
	q.Set(PageQueryParam, strconv.Itoa(index))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
