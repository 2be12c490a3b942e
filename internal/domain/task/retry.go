package task

import (
	"encoding/json"
	"fmt"
	"time"
)

// RetryTask wraps a task whose fetch failed
type RetryTask struct {
	Type       string          `json:"type"`        // Type of the wrapped task
	Payload    json.RawMessage `json:"payload"`     // Serialized wrapped task
	RetryCount int             `json:"retry_count"` // Number of attempts already made
	Error      string          `json:"error"`       // Error message from the last failure
	NotBefore  time.Time       `json:"not_before"`  // Earliest time the next attempt may run
}

func NewRetryTask(failed Task, retryCount int, cause error, notBefore time.Time) (*RetryTask, error) {
	payload, err := failed.TaskValue()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s for retry: %w", failed.TaskType(), err)
	}
	return &RetryTask{
		Type:       failed.TaskType(),
		Payload:    payload,
		RetryCount: retryCount,
		Error:      cause.Error(),
		NotBefore:  notBefore,
	}, nil
}

func (t *RetryTask) TaskType() string {
	return TypeRetry
}

func (t *RetryTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}

// Inner decodes the wrapped task.
func (t *RetryTask) Inner() (Task, error) {
	if t.Type == TypeRetry {
		return nil, fmt.Errorf("retry task cannot wrap another retry task")
	}
	return Decode(t.Type, t.Payload)
}

// Wait returns how long until the task is due, or 0 when it already is.
func (t *RetryTask) Wait(now time.Time) time.Duration {
	return max(0, t.NotBefore.Sub(now))
}
