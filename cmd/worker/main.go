package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/bgatm/replay-engine/internal/config"
	"github.com/bgatm/replay-engine/internal/logger"
	"github.com/bgatm/replay-engine/internal/queue"
	"github.com/bgatm/replay-engine/internal/storage"
	"github.com/bgatm/replay-engine/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Replay Engine Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL)

	// Initialize queue service
	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()

	jobQueue := queue.NewJobQueue(queueClient)
	log.Info("Queue service initialized successfully")

	// Initialize storage service
	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized successfully")

	registry, err := storage.OpenRegistry(cfg.RegistryPath)
	if err != nil {
		log.Error("Failed to open games registry", "error", err, "path", cfg.RegistryPath)
		os.Exit(1)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			log.Error("Error closing registry", "error", err)
		}
	}()

	processor := worker.NewParseProcessor(store, registry, log)
	log.Info("Parse processor initialized successfully")

	// A separate Redis client for worker locking
	// (separate from the queue client to avoid connection conflicts)
	redisClient := queueClient.GetRedisClient()
	lockOpts := redisClient.Options()
	lockClient := redis.NewClient(lockOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := lockClient.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := lockClient.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
	}()

	log.Info("Redis connection established successfully")

	w := worker.New(jobQueue, processor, lockClient, log, cfg.WorkerID)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started, waiting for jobs...")

	<-quit
	log.Info("Worker shutdown signal received")

	w.Stop()

	// Give the worker time to finish the current job
	time.Sleep(2 * time.Second)

	log.Info("Worker exited")
}
