package task

import "artworks/crawler/internal/domain"

type ListingPageTask struct {
	PageURL   string       `json:"page_url"`
	PageIndex int          `json:"page_index"`
	Trail     domain.Trail `json:"trail"`
}

func (t *ListingPageTask) TaskType() string {
	return TypeListingPage
}

func (t *ListingPageTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
