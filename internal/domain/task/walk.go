package task

import "artworks/crawler/internal/domain"

// WalkTask descends into a category page to discover its subcategories
type WalkTask struct {
	CategoryURL string       `json:"category_url"`
	Trail       domain.Trail `json:"trail"`
}

func (t *WalkTask) TaskType() string {
	return TypeWalk
}

func (t *WalkTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}

func (t *WalkTask) DedupKey() string {
	return "walk:" + t.CategoryURL
}
