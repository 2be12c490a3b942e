package state

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStateManager(t *testing.T) {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	// Test if Redis is available
	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	prefix := fmt.Sprintf("artworks_test_%d:", time.Now().UnixNano())
	s := NewRedisStateManager(client, prefix)
	defer s.Reset(context.Background())

	first, err := s.MarkVisited(ctx, "walk:http://example.com/browse/a")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := s.MarkVisited(ctx, "walk:http://example.com/browse/a")
	require.NoError(t, err)
	assert.False(t, again)

	// A second manager on the same prefix shares the set
	other := NewRedisStateManager(client, prefix)
	shared, err := other.MarkVisited(ctx, "walk:http://example.com/browse/a")
	require.NoError(t, err)
	assert.False(t, shared)

	require.NoError(t, s.Forget(ctx, "walk:http://example.com/browse/a"))
	afterForget, err := other.MarkVisited(ctx, "walk:http://example.com/browse/a")
	require.NoError(t, err)
	assert.True(t, afterForget)

	require.NoError(t, s.Reset(ctx))
	afterReset, err := s.MarkVisited(ctx, "walk:http://example.com/browse/a")
	require.NoError(t, err)
	assert.True(t, afterReset)
}
