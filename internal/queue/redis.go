package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"artworks/crawler/internal/domain/task"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type RedisQueue struct {
	redisClient  *redis.Client
	streamPrefix string
	groupName    string
	block        time.Duration
}

func NewRedisQueue(ctx context.Context, redisClient *redis.Client, keyPrefix, groupName string) (*RedisQueue, error) {
	q := &RedisQueue{
		redisClient:  redisClient,
		streamPrefix: keyPrefix + "stream:",
		groupName:    groupName,
		block:        defaultBlock,
	}

	// Streams and the consumer group must exist before workers start
	if err := q.EnsureStreamsExist(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure streams exist: %w", err)
	}

	return q, nil
}

// StreamName returns the stream holding tasks of taskType.
func (q *RedisQueue) StreamName(taskType string) string {
	return q.streamPrefix + taskType
}

func (q *RedisQueue) createGroup(ctx context.Context, stream string) error {
	err := q.redisClient.XGroupCreateMkStream(ctx, stream, q.groupName, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Debugf("Group %s already exists for stream %s", q.groupName, stream)
		return nil
	}
	return err
}

func (q *RedisQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	taskType := t.TaskType()
	streamName := q.StreamName(taskType)

	taskValue, err := t.TaskValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]interface{}{
			"task_type": taskType,
			"task_data": string(taskValue),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add task to Redis stream %s: %w", streamName, err)
	}

	log.Debugf("Added task %s to stream %s with message ID: %s", taskType, streamName, messageID)
	return messageID, nil
}

func (q *RedisQueue) GetTask(ctx context.Context, consumer, stream string) (*Message, error) {
	result, err := q.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.groupName,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    q.block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // No new messages
		}
		return nil, fmt.Errorf("failed to read from Redis stream %s: %w", stream, err)
	}

	if len(result) == 0 || len(result[0].Messages) == 0 {
		return nil, nil
	}

	xmsg := result[0].Messages[0]
	msg, err := toMessage(stream, xmsg)
	if err != nil {
		// A malformed entry would otherwise stay pending forever
		_ = q.AckTask(ctx, stream, xmsg.ID)
		return nil, err
	}
	return msg, nil
}

func (q *RedisQueue) AckTask(ctx context.Context, stream, msgID string) error {
	return q.redisClient.XAck(ctx, stream, q.groupName, msgID).Err()
}

func (q *RedisQueue) AutoClaim(ctx context.Context, consumer, stream string, minIdleTime time.Duration) ([]Message, error) {
	result, _, err := q.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    q.groupName,
		Consumer: consumer,
		MinIdle:  minIdleTime,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim messages from Redis stream %s: %w", stream, err)
	}

	messages := make([]Message, 0, len(result))
	for _, xmsg := range result {
		msg, err := toMessage(stream, xmsg)
		if err != nil {
			log.Warnf("⚠️ Dropping malformed message %s from %s: %v", xmsg.ID, stream, err)
			_ = q.AckTask(ctx, stream, xmsg.ID)
			continue
		}
		messages = append(messages, *msg)
	}
	return messages, nil
}

// Pending sums, over every task stream, the entries not yet delivered to the
// group (lag) and those delivered but not acked.
func (q *RedisQueue) Pending(ctx context.Context) (int64, error) {
	var total int64
	for _, taskType := range task.Types {
		stream := q.StreamName(taskType)

		groups, err := q.redisClient.XInfoGroups(ctx, stream).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to inspect stream %s: %w", stream, err)
		}

		for _, g := range groups {
			if g.Name != q.groupName {
				continue
			}
			total += g.Pending
			if g.Lag > 0 {
				total += g.Lag
				continue
			}

			// Lag is reported as nil (read as 0) when Redis cannot compute it;
			// fall back to comparing the last delivered and generated IDs.
			info, err := q.redisClient.XInfoStream(ctx, stream).Result()
			if err != nil {
				return 0, fmt.Errorf("failed to inspect stream %s: %w", stream, err)
			}
			if info.Length > 0 && info.LastGeneratedID != g.LastDeliveredID {
				total++
			}
		}
	}
	return total, nil
}

// Reset deletes all task streams. Used when a crawl starts from scratch.
func (q *RedisQueue) Reset(ctx context.Context) error {
	for _, taskType := range task.Types {
		if err := q.redisClient.Del(ctx, q.StreamName(taskType)).Err(); err != nil {
			return fmt.Errorf("failed to delete stream for %s: %w", taskType, err)
		}
	}
	return q.EnsureStreamsExist(ctx)
}

// EnsureStreamsExist creates all task streams and the consumer group upfront
func (q *RedisQueue) EnsureStreamsExist(ctx context.Context) error {
	log.Info("🔧 Creating Redis streams and consumer groups...")

	for _, taskType := range task.Types {
		streamName := q.StreamName(taskType)
		if err := q.createGroup(ctx, streamName); err != nil {
			return fmt.Errorf("failed to create consumer group for %s: %w", taskType, err)
		}
		log.Debugf("✅ Stream %s and consumer group %s ready", streamName, q.groupName)
	}

	log.Info("🎉 All Redis streams and consumer groups created successfully")
	return nil
}

func toMessage(stream string, xmsg redis.XMessage) (*Message, error) {
	taskType, ok := xmsg.Values["task_type"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid task type in message %s", xmsg.ID)
	}

	taskData, ok := xmsg.Values["task_data"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid task data in message %s", xmsg.ID)
	}

	return &Message{
		ID:       xmsg.ID,
		Stream:   stream,
		TaskType: taskType,
		Data:     []byte(taskData),
	}, nil
}
