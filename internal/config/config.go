package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL     string
	DataDir      string
	RegistryPath string

	// Fetch boundary credentials and pacing. Empty credentials disable
	// the fetch commands; the engine itself never uses them.
	BGAEmail     string
	BGAPassword  string
	RequestDelay time.Duration

	WorkerID string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		LogLevel:     parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		RegistryPath: getEnv("REGISTRY_PATH", "./data/registry.db"),
		BGAEmail:     getEnv("BGA_EMAIL", ""),
		BGAPassword:  getEnv("BGA_PASSWORD", ""),
		RequestDelay: parseDuration(getEnv("REQUEST_DELAY", "2s")),
		WorkerID:     getEnv("WORKER_ID", ""),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
