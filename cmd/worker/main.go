package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campusattend/internal/config"
	"campusattend/internal/notify"
	"campusattend/internal/queue"
	"campusattend/internal/store"
)

// Worker consumes notification ids from the queue and pushes them to devices.
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

	if cfg.QueueBackend == "memory" {
		log.Fatalf("worker needs a shared queue; QUEUE_BACKEND=memory delivers inside the api process")
	}

	db, err := store.Open(cfg.DBDriver, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("warning: redis at %s not reachable, will keep retrying", cfg.RedisAddr)
	}

	q := queue.NewRedisQueue(redisClient.Client, cfg.NotifyQueueKey)
	dispatcher := notify.NewDispatcher(
		notify.NewRepository(db.Client),
		notify.NewPushClient(cfg.PushGatewayURL, cfg.PushGatewayKey),
	)

	log.Println("worker started, waiting for notifications...")
	if err := dispatcher.Run(ctx, q); err != nil {
		log.Fatalf("worker failed: %v", err)
	}
	log.Println("worker stopped")
}
