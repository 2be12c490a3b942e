package repository

import (
	"context"
	"testing"
	"time"

	"artworks/crawler/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPostgresDSN = "host=localhost port=5432 user=artworks_user password=artworks_pass dbname=artworks sslmode=disable"

func TestPostgresRepository(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := pgxpool.New(ctx, testPostgresDSN)
	require.NoError(t, err)

	// Test if Postgres is available
	if err := db.Ping(ctx); err != nil {
		db.Close()
		t.Skip("Postgres is not available, skipping test")
	}

	repo, err := NewPostgresRepository(ctx, db)
	require.NoError(t, err)
	defer repo.Close()

	record := sampleRecord()
	record.URL = "http://example.com/item/pg-test"
	defer db.Exec(context.Background(), `DELETE FROM item_records WHERE url = $1`, record.URL)

	require.NoError(t, repo.SaveRecord(ctx, record))
	record.Title = "Sunset (revised)"
	require.NoError(t, repo.SaveRecord(ctx, record))

	var title, category string
	var trail []string
	require.NoError(t, db.QueryRow(ctx,
		`SELECT title, category, ARRAY(SELECT jsonb_array_elements_text(data->'trail')) FROM item_records WHERE url = $1`,
		record.URL).Scan(&title, &category, &trail))
	assert.Equal(t, "Sunset (revised)", title)
	assert.Equal(t, "Summertime", category)
	assert.Equal(t, []string{"Summertime", "Beach"}, trail)

	failure := &domain.ItemFailure{
		URL:   "http://example.com/item/pg-test-failure",
		Stage: domain.FailureStageFetch,
		Error: "HTTP error: 503",
	}
	defer db.Exec(context.Background(), `DELETE FROM item_failures WHERE url = $1`, failure.URL)
	require.NoError(t, repo.SaveFailure(ctx, failure))

	var stage string
	require.NoError(t, db.QueryRow(ctx, `SELECT stage FROM item_failures WHERE url = $1`, failure.URL).Scan(&stage))
	assert.Equal(t, "fetch", stage)
}
