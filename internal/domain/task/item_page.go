package task

import "artworks/crawler/internal/domain"

type ItemPageTask struct {
	ItemURL string       `json:"item_url"`
	Trail   domain.Trail `json:"trail"`
}

func (t *ItemPageTask) TaskType() string {
	return TypeItemPage
}

func (t *ItemPageTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}

func (t *ItemPageTask) DedupKey() string {
	return "item:" + t.ItemURL
}
