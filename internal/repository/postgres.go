package repository

import (
	"context"
	"fmt"

	"artworks/crawler/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS item_records (
	url        TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	category   TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS item_failures (
	id         BIGSERIAL PRIMARY KEY,
	url        TEXT NOT NULL,
	stage      TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, db *pgxpool.Pool) (RecordRepository, error) {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &postgresRepository{db: db}, nil
}

func (r *postgresRepository) SaveRecord(ctx context.Context, record *domain.ItemRecord) error {
	query := `
	INSERT INTO item_records (url, title, category, data)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (url)
	DO UPDATE SET title = $2, category = $3, data = $4, updated_at = now()`
	_, err := r.db.Exec(ctx, query, record.URL, record.Title, record.Trail.Root(), record)
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", record.URL, err)
	}
	return nil
}

func (r *postgresRepository) SaveFailure(ctx context.Context, failure *domain.ItemFailure) error {
	query := `INSERT INTO item_failures (url, stage, data) VALUES ($1, $2, $3)`
	_, err := r.db.Exec(ctx, query, failure.URL, string(failure.Stage), failure)
	if err != nil {
		return fmt.Errorf("failed to save failure for %s: %w", failure.URL, err)
	}
	return nil
}

func (r *postgresRepository) Close() error {
	r.db.Close()
	return nil
}
