package crawler

import "strings"

const (
	DefaultPageSize            = 10
	DefaultItemCountSuffix     = "items"
	DefaultCategoryTitlePrefix = "Category:"
	DefaultItemPathPrefix      = "/item"
)

// Selectors for the one page family this crawler understands.
const (
	subcategorySelector = "div#subcats > div > a"
	subcategoryNameSel  = "h3"
	categoryHeadingSel  = "div#body > h1"
	itemCountSelector   = "label.item-count"
	itemLinkSelector    = "div#body > div > a"
	itemTitleSelector   = "div#content > h1"
	itemImageSelector   = "div#body > img"
	itemArtistSelector  = "h2.artist"
	itemDescriptionSel  = "div.description > p"
)

// TargetSet is an immutable allowlist of category display names.
// Matching is exact and case-sensitive.
type TargetSet struct {
	names map[string]struct{}
}

func NewTargetSet(names ...string) TargetSet {
	set := TargetSet{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		set.names[name] = struct{}{}
	}
	return set
}

func (s TargetSet) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

func (s TargetSet) Len() int {
	return len(s.names)
}

// Rules holds the site-specific settings shared by all crawl components
type Rules struct {
	SiteOrigin          string    // Scheme and host prepended to relative image paths
	Targets             TargetSet // Top-level categories to descend into
	PageSize            int       // Items per listing page
	ItemCountSuffix     string    // Label text following the item count, e.g. "items"
	CategoryTitlePrefix string    // Label text preceding the category title, e.g. "Category:"
	ItemPathPrefix      string    // Path prefix identifying item links
}

// DefaultRules returns rules for origin with the site's defaults filled in.
func DefaultRules(origin string, targets ...string) Rules {
	return Rules{
		SiteOrigin:          strings.TrimRight(origin, "/"),
		Targets:             NewTargetSet(targets...),
		PageSize:            DefaultPageSize,
		ItemCountSuffix:     DefaultItemCountSuffix,
		CategoryTitlePrefix: DefaultCategoryTitlePrefix,
		ItemPathPrefix:      DefaultItemPathPrefix,
	}
}
