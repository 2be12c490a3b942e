package queue

import (
	"context"
	"time"

	"artworks/crawler/internal/domain/task"
)

// Message is a task delivered to a consumer
type Message struct {
	ID       string
	Stream   string
	TaskType string
	Data     []byte
}

// Queue is the crawl frontier. A delivered message stays pending until it is
// acknowledged, so follow-up tasks must be added before the message is acked.
type Queue interface {
	StreamName(taskType string) string
	AddTask(ctx context.Context, task task.Task) (string, error) // Returns message ID
	GetTask(ctx context.Context, consumer, stream string) (*Message, error)
	AckTask(ctx context.Context, stream, msgID string) error
	AutoClaim(ctx context.Context, consumer, stream string, minIdleTime time.Duration) ([]Message, error)
	EnsureStreamsExist(ctx context.Context) error
	// Pending counts tasks that are either waiting or delivered but not acked.
	Pending(ctx context.Context) (int64, error)
}

const defaultBlock = 2 * time.Second
