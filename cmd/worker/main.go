package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"schoolhub/internal/announce"
	"schoolhub/internal/config"
	"schoolhub/internal/queue"
	"schoolhub/internal/store"
)

// Worker consumes announcement messages and delivers them to the audience
// channels (currently the log; mail/push hooks go here).
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "schoolhub:announcements")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for announcements...")
	for msg := range messages {
		if msg.Type != "announcement" {
			continue
		}

		var a announce.Announcement
		if err := json.Unmarshal(msg.Body, &a); err != nil {
			log.Printf("malformed announcement message: %v", err)
			continue
		}

		log.Printf("delivering announcement %s (%q) to audience %s", a.ID, a.Title, a.Audience)
	}

	log.Println("worker stopped")
}
