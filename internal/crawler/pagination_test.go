package crawler

import (
	"errors"
	"fmt"
	"testing"

	"artworks/crawler/internal/domain"
	"artworks/crawler/internal/domain/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingPage(t *testing.T, label string) *Page {
	t.Helper()
	page, err := NewPageFromString("http://example.com/browse/summer",
		fmt.Sprintf(`<html><body><div id="body"><label class="item-count">%s</label></div></body></html>`, label))
	require.NoError(t, err)
	return page
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name  string
		label string
		pages int
	}{
		// An empty category still requests page 0; it just has no item links.
		{name: "empty category", label: "0 items", pages: 1},
		{name: "partial last page", label: "25 items", pages: 3},
		{name: "fewer than a page", label: "7 items", pages: 1},
		{name: "exact multiple adds a trailing page", label: "20 items", pages: 3},
		{name: "surrounding whitespace", label: "  37 items \n", pages: 4},
		{name: "no suffix", label: "12", pages: 2},
		{name: "singular suffix", label: "1 item", pages: 1},
		{name: "other suffix", label: "37 results", pages: 4},
		{name: "suffix without space", label: "12items", pages: 2},
	}

	paginator := NewPaginator(DefaultRules("http://example.com", "Summertime"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt := &task.PaginationTask{
				CategoryURL: "http://example.com/browse/summer",
				Trail:       domain.Trail{"Summertime", "Beach"},
			}

			tasks, err := paginator.Paginate(listingPage(t, tt.label), pt)
			require.NoError(t, err)
			require.Len(t, tasks, tt.pages)

			for i, tk := range tasks {
				lp, ok := tk.(*task.ListingPageTask)
				require.True(t, ok)
				assert.Equal(t, i, lp.PageIndex)
				assert.Equal(t, fmt.Sprintf("http://example.com/browse/summer?page=%d", i), lp.PageURL)
				assert.Equal(t, domain.Trail{"Summertime", "Beach"}, lp.Trail)
			}
		})
	}
}

func TestPaginateMalformedCount(t *testing.T) {
	paginator := NewPaginator(DefaultRules("http://example.com", "Summertime"))
	pt := &task.PaginationTask{CategoryURL: "http://example.com/browse/summer"}

	for _, label := range []string{"many items", "items", "-3 items", "", "about 40 items"} {
		_, err := paginator.Paginate(listingPage(t, label), pt)
		assert.True(t, errors.Is(err, ErrMalformedCount), "label %q", label)
	}

	page, err := NewPageFromString(pt.CategoryURL, `<html><body></body></html>`)
	require.NoError(t, err)
	_, err = paginator.Paginate(page, pt)
	assert.ErrorIs(t, err, ErrMalformedCount)
}

func TestPaginateCustomPageSize(t *testing.T) {
	rules := DefaultRules("http://example.com", "Summertime")
	rules.PageSize = 25
	paginator := NewPaginator(rules)

	assert.Equal(t, 1, paginator.PageCount(0))
	assert.Equal(t, 2, paginator.PageCount(25))
	assert.Equal(t, 2, paginator.PageCount(49))
}

func TestPageURLKeepsExistingQuery(t *testing.T) {
	pt := &task.PaginationTask{CategoryURL: "http://example.com/browse/summer?sort=title"}
	u, err := pt.PageURL(2)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/browse/summer?page=2&sort=title", u)
}
