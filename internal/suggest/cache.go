package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cached wraps the client with a per-student Redis cache so the external
// service is hit at most once per TTL per student.
type Cached struct {
	client *Client
	redis  *redis.Client
	ttl    time.Duration
}

// NewCached creates the caching layer. redis may be nil, in which case every
// call goes straight to the client.
func NewCached(client *Client, rdb *redis.Client, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cached{client: client, redis: rdb, ttl: ttl}
}

// TasksFor returns suggestions for the student, serving from cache when
// fresh. forceRefresh bypasses and repopulates the cache.
func (c *Cached) TasksFor(ctx context.Context, studentID int64, interests string, forceRefresh bool) ([]Task, error) {
	key := fmt.Sprintf("suggest:student:%d", studentID)

	if c.redis != nil && !forceRefresh {
		if raw, err := c.redis.Get(ctx, key).Result(); err == nil {
			var tasks []Task
			if json.Unmarshal([]byte(raw), &tasks) == nil && len(tasks) > 0 {
				return tasks, nil
			}
		}
	}

	tasks, err := c.client.Tasks(ctx, interests, 3)
	if err != nil {
		return nil, err
	}

	if c.redis != nil {
		if raw, err := json.Marshal(tasks); err == nil {
			_ = c.redis.Set(ctx, key, raw, c.ttl).Err()
		}
	}
	return tasks, nil
}
