package domain

// ItemRecord is the structured data extracted from a single item page.
// Optional fields are nil when the page does not supply them, which drops the
// key from the JSON encoding entirely.
type ItemRecord struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	ImageURL    string    `json:"image_url"`
	Artist      *string   `json:"artist,omitempty"`
	Description *string   `json:"description,omitempty"`
	Trail       Trail     `json:"trail"`
	Height      []float64 `json:"height,omitempty"`
	Width       []float64 `json:"width,omitempty"`
	Depth       []float64 `json:"depth,omitempty"`
}

type FailureStage string

const (
	FailureStageExtract    FailureStage = "extract"    // Mandatory item field missing
	FailureStagePagination FailureStage = "pagination" // Item count label unparsable
	FailureStageFetch      FailureStage = "fetch"      // Retries exhausted
)

// ItemFailure reports a non-fatal failure for a single item or category.
type ItemFailure struct {
	URL   string       `json:"url"`
	Trail Trail        `json:"trail"`
	Stage FailureStage `json:"stage"`
	Error string       `json:"error"`
}
