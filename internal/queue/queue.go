package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is one unit of work on the queue. Body is an opaque JSON document
// interpreted by Type.
type Message struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

// Queue fans messages from the API out to the delivery worker.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// InMemory backs the queue with a channel. Used in dev and tests where a
// worker runs in the same process, and as the fallback when Redis is not
// configured.
type InMemory struct {
	ch chan Message
}

// NewInMemory creates a queue holding at most size undelivered messages.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisList is a Redis-list queue: LPUSH to publish, BRPOP to consume.
// Messages travel as JSON envelopes so the worker can run in another process.
type RedisList struct {
	client *redis.Client
	key    string
}

// NewRedisQueue creates a queue on the given list key.
func NewRedisQueue(client *redis.Client, key string) *RedisList {
	if key == "" {
		key = "schoolhub:queue"
	}
	return &RedisList{client: client, key: key}
}

func (q *RedisList) Publish(ctx context.Context, msg Message) error {
	env, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, env).Err()
}

func (q *RedisList) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				continue
			}
			// BRPOP yields [key, value]
			if len(res) != 2 {
				continue
			}
			var msg Message
			if json.Unmarshal([]byte(res[1]), &msg) != nil {
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
