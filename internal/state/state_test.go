package state

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateManager(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStateManager()

	first, err := s.MarkVisited(ctx, "item:http://example.com/item/1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := s.MarkVisited(ctx, "item:http://example.com/item/1")
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, s.Forget(ctx, "item:http://example.com/item/1"))
	afterForget, err := s.MarkVisited(ctx, "item:http://example.com/item/1")
	require.NoError(t, err)
	assert.True(t, afterForget)

	require.NoError(t, s.Reset(ctx))
	afterReset, err := s.MarkVisited(ctx, "item:http://example.com/item/1")
	require.NoError(t, err)
	assert.True(t, afterReset)
}

func TestMemoryStateManagerConcurrentFirstVisit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStateManager()

	var firsts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.MarkVisited(ctx, "walk:http://example.com/browse/a"); ok {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), firsts.Load())
}
