package queue

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"artworks/crawler/internal/domain/task"

	log "github.com/sirupsen/logrus"
)

type delivery struct {
	msg         Message
	deliveredAt time.Time
}

// MemoryQueue is an in-process Queue with the same delivery and ack semantics
// as the Redis streams queue. It is used for single-process crawls and tests.
type MemoryQueue struct {
	mu       sync.Mutex
	ready    map[string][]Message
	inflight map[string]*delivery
	notify   chan struct{}
	nextID   uint64
	block    time.Duration
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		ready:    make(map[string][]Message),
		inflight: make(map[string]*delivery),
		notify:   make(chan struct{}),
		block:    defaultBlock,
	}
}

// SetBlock changes how long GetTask waits for a message.
func (q *MemoryQueue) SetBlock(d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.block = d
}

func (q *MemoryQueue) StreamName(taskType string) string {
	return taskType
}

func (q *MemoryQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	taskValue, err := t.TaskValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}

	q.mu.Lock()
	q.nextID++
	msg := Message{
		ID:       strconv.FormatUint(q.nextID, 10),
		Stream:   q.StreamName(t.TaskType()),
		TaskType: t.TaskType(),
		Data:     taskValue,
	}
	q.ready[msg.Stream] = append(q.ready[msg.Stream], msg)

	// wake every waiting consumer
	close(q.notify)
	q.notify = make(chan struct{})
	q.mu.Unlock()

	log.Debugf("Added task %s with message ID: %s", msg.TaskType, msg.ID)
	return msg.ID, nil
}

func (q *MemoryQueue) GetTask(ctx context.Context, consumer, stream string) (*Message, error) {
	q.mu.Lock()
	timer := time.NewTimer(q.block)
	q.mu.Unlock()
	defer timer.Stop()

	for {
		q.mu.Lock()
		if pending := q.ready[stream]; len(pending) > 0 {
			msg := pending[0]
			q.ready[stream] = pending[1:]
			q.inflight[msg.ID] = &delivery{msg: msg, deliveredAt: time.Now()}
			q.mu.Unlock()
			return &msg, nil
		}
		wait := q.notify
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case <-wait:
		}
	}
}

func (q *MemoryQueue) AckTask(ctx context.Context, stream, msgID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	d, ok := q.inflight[msgID]
	if !ok || d.msg.Stream != stream {
		return fmt.Errorf("message %s is not pending on %s", msgID, stream)
	}
	delete(q.inflight, msgID)
	return nil
}

func (q *MemoryQueue) AutoClaim(ctx context.Context, consumer, stream string, minIdleTime time.Duration) ([]Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var claimed []Message
	now := time.Now()
	for _, d := range q.inflight {
		if d.msg.Stream == stream && now.Sub(d.deliveredAt) >= minIdleTime {
			d.deliveredAt = now
			claimed = append(claimed, d.msg)
		}
	}
	return claimed, nil
}

func (q *MemoryQueue) EnsureStreamsExist(ctx context.Context) error {
	return nil
}

func (q *MemoryQueue) Pending(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	total := int64(len(q.inflight))
	for _, msgs := range q.ready {
		total += int64(len(msgs))
	}
	return total, nil
}
