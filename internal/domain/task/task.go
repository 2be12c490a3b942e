package task

import (
	"encoding/json"
	"fmt"
)

type Task interface {
	TaskType() string
	TaskValue() ([]byte, error)
}

// Deduplicated is implemented by tasks whose URL should be fetched only once
// per crawl. Listing and pagination tasks deliberately do not implement it: the
// same listing may be reached under two different trails.
type Deduplicated interface {
	DedupKey() string
}

const (
	TypeWalk        = "WalkTask"
	TypePagination  = "PaginationTask"
	TypeListingPage = "ListingPageTask"
	TypeItemPage    = "ItemPageTask"
	TypeRetry       = "RetryTask"
)

// Types lists every task type; each one gets its own stream.
var Types = []string{TypeWalk, TypePagination, TypeListingPage, TypeItemPage, TypeRetry}

// DefaultTaskValue provides a common implementation for TaskValue
func DefaultTaskValue(task interface{}) ([]byte, error) {
	return json.Marshal(task)
}

func UnmarshalTask[T Task](task []byte) (T, error) {
	var t T
	err := json.Unmarshal(task, &t)
	return t, err
}

// Decode restores a task from its type name and serialized value.
func Decode(taskType string, data []byte) (Task, error) {
	switch taskType {
	case TypeWalk:
		return UnmarshalTask[*WalkTask](data)
	case TypePagination:
		return UnmarshalTask[*PaginationTask](data)
	case TypeListingPage:
		return UnmarshalTask[*ListingPageTask](data)
	case TypeItemPage:
		return UnmarshalTask[*ItemPageTask](data)
	case TypeRetry:
		return UnmarshalTask[*RetryTask](data)
	default:
		return nil, fmt.Errorf("unknown task type: %s", taskType)
	}
}
