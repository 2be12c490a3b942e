package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"artworks/crawler/internal/domain"
)

// jsonlRepository appends one JSON document per line, records and failures to
// separate files.
type jsonlRepository struct {
	mu       sync.Mutex
	records  *os.File
	failures *os.File
}

func NewJSONLRepository(recordsPath, failuresPath string) (RecordRepository, error) {
	records, err := os.OpenFile(recordsPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open records file: %w", err)
	}

	failures, err := os.OpenFile(failuresPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = records.Close()
		return nil, fmt.Errorf("failed to open failures file: %w", err)
	}

	return &jsonlRepository{records: records, failures: failures}, nil
}

func (r *jsonlRepository) SaveRecord(ctx context.Context, record *domain.ItemRecord) error {
	return r.writeLine(r.records, record)
}

func (r *jsonlRepository) SaveFailure(ctx context.Context, failure *domain.ItemFailure) error {
	return r.writeLine(r.failures, failure)
}

func (r *jsonlRepository) writeLine(f *os.File, v interface{}) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode line: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.Name(), err)
	}
	return nil
}

func (r *jsonlRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	errRecords := r.records.Close()
	errFailures := r.failures.Close()
	if errRecords != nil {
		return errRecords
	}
	return errFailures
}
