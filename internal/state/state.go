package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// StateManager remembers which walk and item URLs a crawl has already scheduled
type StateManager interface {
	// MarkVisited records key and reports whether this is its first visit.
	MarkVisited(ctx context.Context, key string) (bool, error)
	// Forget removes key so it can be scheduled again.
	Forget(ctx context.Context, key string) error
	// Reset forgets every visited key.
	Reset(ctx context.Context) error
}

type redisStateManager struct {
	redisClient *redis.Client
	key         string
}

func NewRedisStateManager(redisClient *redis.Client, keyPrefix string) StateManager {
	return &redisStateManager{
		redisClient: redisClient,
		key:         keyPrefix + "visited",
	}
}

func (s *redisStateManager) MarkVisited(ctx context.Context, key string) (bool, error) {
	added, err := s.redisClient.SAdd(ctx, s.key, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark %s as visited: %w", key, err)
	}
	return added == 1, nil
}

func (s *redisStateManager) Forget(ctx context.Context, key string) error {
	if err := s.redisClient.SRem(ctx, s.key, key).Err(); err != nil {
		return fmt.Errorf("failed to forget %s: %w", key, err)
	}
	return nil
}

func (s *redisStateManager) Reset(ctx context.Context) error {
	if err := s.redisClient.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to reset visited set: %w", err)
	}
	return nil
}

type memoryStateManager struct {
	mu      sync.Mutex
	visited map[string]struct{}
}

func NewMemoryStateManager() StateManager {
	return &memoryStateManager{visited: make(map[string]struct{})}
}

func (s *memoryStateManager) MarkVisited(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.visited[key]; seen {
		return false, nil
	}
	s.visited[key] = struct{}{}
	return true, nil
}

func (s *memoryStateManager) Forget(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.visited, key)
	return nil
}

func (s *memoryStateManager) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited = make(map[string]struct{})
	return nil
}
