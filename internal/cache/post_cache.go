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

const allPostsKey = "posts:all"

// PostCache holds the public post listings. Invalidate drops the affected
// listings and leaves a dirty marker on each of them; while a marker lives,
// Set calls for that listing are discarded so a reader that loaded rows before
// the write cannot put them back. The TTL bounds staleness from out-of-band edits.
type PostCache struct {
	client         *redisv9.Client
	ttl            time.Duration
	dirtyMarkerTTL time.Duration
}

func NewPostCache(client *redisv9.Client, ttl, dirtyMarkerTTL time.Duration) *PostCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &PostCache{client: client, ttl: ttl, dirtyMarkerTTL: dirtyMarkerTTL}
}

func (c *PostCache) GetAll(ctx context.Context) ([]model.Post, bool, error) {
	return c.get(ctx, allPostsKey)
}

func (c *PostCache) SetAll(ctx context.Context, posts []model.Post) error {
	return c.set(ctx, allPostsKey, posts)
}

func (c *PostCache) GetByCreator(ctx context.Context, userID uint) ([]model.Post, bool, error) {
	return c.get(ctx, creatorKey(userID))
}

func (c *PostCache) SetByCreator(ctx context.Context, userID uint, posts []model.Post) error {
	return c.set(ctx, creatorKey(userID), posts)
}

// Invalidate drops the global listing and the listing of the given creator.
func (c *PostCache) Invalidate(ctx context.Context, creatorID uint) error {
	keys := []string{allPostsKey, creatorKey(creatorID)}
	_, err := c.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		for _, key := range keys {
			pipe.Set(ctx, dirtyKey(key), "1", c.dirtyMarkerTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate posts failed: %w", err)
	}
	return nil
}

func (c *PostCache) get(ctx context.Context, key string) ([]model.Post, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s failed: %w", key, err)
	}

	posts := []model.Post{}
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached posts failed: %w", err)
	}
	return posts, true, nil
}

// set skips the write while the listing is dirty. The marker is watched, so an
// Invalidate landing between the check and the write aborts the write too.
func (c *PostCache) set(ctx context.Context, key string, posts []model.Post) error {
	payload, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("marshal posts cache failed: %w", err)
	}

	marker := dirtyKey(key)
	err = c.client.Watch(ctx, func(tx *redisv9.Tx) error {
		dirty, err := tx.Exists(ctx, marker).Result()
		if err != nil {
			return err
		}
		if dirty > 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
			pipe.Set(ctx, key, payload, c.ttl)
			return nil
		})
		return err
	}, marker)
	if errors.Is(err, redisv9.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis set %s failed: %w", key, err)
	}
	return nil
}

func creatorKey(userID uint) string {
	return fmt.Sprintf("posts:user:%d", userID)
}

func dirtyKey(key string) string {
	return "dirty:" + key
}
