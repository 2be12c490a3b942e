package crawler

import (
	"errors"
	"fmt"
	"strings"

	"artworks/crawler/internal/domain"
)

var (
	// ErrMissingMandatoryField is returned when an item page lacks its title or image.
	ErrMissingMandatoryField = errors.New("missing mandatory field")
	// ErrMalformedCount is returned when a listing's item count label cannot be parsed.
	ErrMalformedCount = errors.New("malformed item count")
)

// ExtractionError describes a failed item extraction
type ExtractionError struct {
	URL   string
	Trail domain.Trail
	Field string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %q on %s (trail %s)", ErrMissingMandatoryField, e.Field, e.URL, strings.Join(e.Trail, " > "))
}

func (e *ExtractionError) Unwrap() error {
	return ErrMissingMandatoryField
}
