package queue

import (
	"context"
	"testing"
	"time"

	"artworks/crawler/internal/domain"
	"artworks/crawler/internal/domain/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueDeliverAndAck(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	id, err := q.AddTask(ctx, &task.ItemPageTask{ItemURL: "http://example.com/item/1", Trail: domain.Trail{"A"}})
	require.NoError(t, err)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	msg, err := q.GetTask(ctx, "worker-1", q.StreamName(task.TypeItemPage))
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, task.TypeItemPage, msg.TaskType)

	decoded, err := task.Decode(msg.TaskType, msg.Data)
	require.NoError(t, err)
	assert.Equal(t, domain.Trail{"A"}, decoded.(*task.ItemPageTask).Trail)

	// delivered but unacked still counts as pending
	pending, _ = q.Pending(ctx)
	assert.Equal(t, int64(1), pending)

	require.NoError(t, q.AckTask(ctx, msg.Stream, msg.ID))
	pending, _ = q.Pending(ctx)
	assert.Equal(t, int64(0), pending)

	assert.Error(t, q.AckTask(ctx, msg.Stream, msg.ID))
}

func TestMemoryQueueGetTaskTimesOut(t *testing.T) {
	q := NewMemoryQueue()
	q.SetBlock(20 * time.Millisecond)

	msg, err := q.GetTask(context.Background(), "worker-1", q.StreamName(task.TypeWalk))
	assert.NoError(t, err)
	assert.Nil(t, msg)
}

func TestMemoryQueueWakesBlockedConsumer(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	q.SetBlock(5 * time.Second)

	got := make(chan *Message, 1)
	go func() {
		msg, _ := q.GetTask(ctx, "worker-1", q.StreamName(task.TypeWalk))
		got <- msg
	}()

	time.Sleep(10 * time.Millisecond)
	_, err := q.AddTask(ctx, &task.WalkTask{CategoryURL: "http://example.com/browse/a"})
	require.NoError(t, err)

	select {
	case msg := <-got:
		require.NotNil(t, msg)
		assert.Equal(t, task.TypeWalk, msg.TaskType)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer was not woken up")
	}
}

func TestMemoryQueueGetTaskCancelled(t *testing.T) {
	q := NewMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.GetTask(ctx, "worker-1", q.StreamName(task.TypeWalk))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryQueueAutoClaim(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	_, err := q.AddTask(ctx, &task.PaginationTask{CategoryURL: "http://example.com/browse/a"})
	require.NoError(t, err)

	stream := q.StreamName(task.TypePagination)
	msg, err := q.GetTask(ctx, "worker-1", stream)
	require.NoError(t, err)
	require.NotNil(t, msg)

	claimed, err := q.AutoClaim(ctx, "claimer", stream, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	claimed, err = q.AutoClaim(ctx, "claimer", stream, 0)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, msg.ID, claimed[0].ID)
}
