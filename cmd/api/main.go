package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bgatm/replay-engine/internal/config"
	"github.com/bgatm/replay-engine/internal/handlers"
	"github.com/bgatm/replay-engine/internal/logger"
	"github.com/bgatm/replay-engine/internal/middleware"
	"github.com/bgatm/replay-engine/internal/queue"
	"github.com/bgatm/replay-engine/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Replay Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment)

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

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

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	replayHandler := handlers.NewReplayHandler(store, registry, log)
	mux.Handle("/v1/replays", replayHandler)
	mux.Handle("/v1/replays/", replayHandler)

	parseHandler := handlers.NewParseHandler(store, jobQueue, log)
	mux.Handle("/v1/parse", parseHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
