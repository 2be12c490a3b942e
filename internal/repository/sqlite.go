package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"artworks/crawler/internal/domain"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS item_records (
	url        TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	category   TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS item_failures (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	url        TEXT NOT NULL,
	stage      TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

type sqliteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database file at path.
func NewSQLiteRepository(ctx context.Context, path string) (RecordRepository, error) {
	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &sqliteRepository{db: db}, nil
}

func (r *sqliteRepository) SaveRecord(ctx context.Context, record *domain.ItemRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", record.URL, err)
	}

	query := `
	INSERT INTO item_records (url, title, category, data)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (url)
	DO UPDATE SET title = excluded.title, category = excluded.category, data = excluded.data, updated_at = CURRENT_TIMESTAMP`
	if _, err := r.db.ExecContext(ctx, query, record.URL, record.Title, record.Trail.Root(), string(data)); err != nil {
		return fmt.Errorf("failed to save record %s: %w", record.URL, err)
	}
	return nil
}

func (r *sqliteRepository) SaveFailure(ctx context.Context, failure *domain.ItemFailure) error {
	data, err := json.Marshal(failure)
	if err != nil {
		return fmt.Errorf("failed to encode failure for %s: %w", failure.URL, err)
	}

	query := `INSERT INTO item_failures (url, stage, data) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, failure.URL, string(failure.Stage), string(data)); err != nil {
		return fmt.Errorf("failed to save failure for %s: %w", failure.URL, err)
	}
	return nil
}

func (r *sqliteRepository) Close() error {
	return r.db.Close()
}
