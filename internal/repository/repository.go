package repository

import (
	"context"

	"artworks/crawler/internal/domain"
)

// RecordRepository is the output boundary of the crawl
type RecordRepository interface {
	SaveRecord(ctx context.Context, record *domain.ItemRecord) error
	SaveFailure(ctx context.Context, failure *domain.ItemFailure) error
	Close() error
}
