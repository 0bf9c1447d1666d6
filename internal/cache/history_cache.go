package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"mindhaven/internal/model"
)

const defaultHistoryWindow = 200

// HistoryCache keeps the tail of each user's therapy transcript as a Redis
// list, oldest first, one JSON message per element. At most window messages
// are kept. Messages still in flight to the persist worker leave a dirty
// marker; while it lives reads miss and refills are dropped.
type HistoryCache struct {
	client         *redisv9.Client
	window         int
	historyTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewHistoryCache(client *redisv9.Client, window int, historyTTL, dirtyMarkerTTL time.Duration) *HistoryCache {
	if window <= 0 {
		window = defaultHistoryWindow
	}
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &HistoryCache{
		client:         client,
		window:         window,
		historyTTL:     historyTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

// Recent returns the latest limit messages of the cached transcript. A limit
// outside (0, window] reads the whole window. An empty or dirty transcript is a miss.
func (c *HistoryCache) Recent(ctx context.Context, userID uint, limit int) ([]model.TherapyMessage, bool, error) {
	if limit <= 0 || limit > c.window {
		limit = c.window
	}

	var dirty *redisv9.IntCmd
	var tail *redisv9.StringSliceCmd
	_, err := c.client.Pipelined(ctx, func(pipe redisv9.Pipeliner) error {
		dirty = pipe.Exists(ctx, transcriptDirtyKey(userID))
		tail = pipe.LRange(ctx, transcriptKey(userID), int64(-limit), -1)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("redis read transcript failed: %w", err)
	}
	if dirty.Val() > 0 || len(tail.Val()) == 0 {
		return nil, false, nil
	}

	messages := make([]model.TherapyMessage, 0, len(tail.Val()))
	for _, raw := range tail.Val() {
		var msg model.TherapyMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, false, fmt.Errorf("unmarshal cached message failed: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, true, nil
}

// Fill replaces the cached transcript with the tail of messages, which must be
// in chronological order. It is a no-op while the transcript is dirty.
func (c *HistoryCache) Fill(ctx context.Context, userID uint, messages []model.TherapyMessage) error {
	if len(messages) > c.window {
		messages = messages[len(messages)-c.window:]
	}
	if len(messages) == 0 {
		return nil
	}

	values := make([]any, 0, len(messages))
	for _, msg := range messages {
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal transcript message failed: %w", err)
		}
		values = append(values, payload)
	}

	key := transcriptKey(userID)
	marker := transcriptDirtyKey(userID)
	err := c.client.Watch(ctx, func(tx *redisv9.Tx) error {
		dirty, err := tx.Exists(ctx, marker).Result()
		if err != nil {
			return err
		}
		if dirty > 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.RPush(ctx, key, values...)
			pipe.Expire(ctx, key, c.historyTTL)
			return nil
		})
		return err
	}, marker)
	if errors.Is(err, redisv9.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis fill transcript failed: %w", err)
	}
	return nil
}

// Invalidate drops the cached transcript and marks it dirty.
func (c *HistoryCache) Invalidate(ctx context.Context, userID uint) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Set(ctx, transcriptDirtyKey(userID), "1", c.dirtyMarkerTTL)
		pipe.Del(ctx, transcriptKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate transcript failed: %w", err)
	}
	return nil
}

func transcriptKey(userID uint) string {
	return fmt.Sprintf("therapy:history:%d", userID)
}

func transcriptDirtyKey(userID uint) string {
	return fmt.Sprintf("therapy:history:dirty:%d", userID)
}
