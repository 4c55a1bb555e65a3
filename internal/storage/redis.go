package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bgatm/replay-engine/pkg/replay"
)

// replayTTL bounds how long a parsed replay stays cached. The filesystem
// copy is the durable one; the cache only spares repeat parses.
const replayTTL = 24 * time.Hour

// RedisStorage implements the Storage interface using Redis as a replay
// cache and the filesystem for raw documents and parsed output
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) *RedisStorage {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		// Plain host:port form
		opt = &redis.Options{Addr: redisURL}
	}

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  redis.NewClient(opt),
		logger:  logger,
		dataDir: dataDir,
	}
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func replayKey(tableID, perspective string) string {
	return "replay:" + tableID + ":" + perspective
}

// Replay operations (Redis cache over filesystem)

func (r *RedisStorage) SaveReplay(ctx context.Context, g *replay.GameReplay) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal replay: %w", err)
	}

	path := r.parsedPath(g.ReplayID, g.PlayerPerspective)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create parsed directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write parsed replay: %w", err)
	}

	key := replayKey(g.ReplayID, g.PlayerPerspective)
	if err := r.client.Set(ctx, key, string(data), replayTTL).Err(); err != nil {
		// The file write already succeeded; a cold cache is not fatal.
		r.logger.Warn("Failed to cache replay", "table_id", g.ReplayID, "error", err)
	}
	return nil
}

func (r *RedisStorage) LoadReplay(ctx context.Context, tableID, perspective string) (*replay.GameReplay, error) {
	key := replayKey(tableID, perspective)
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err == nil {
		var g replay.GameReplay
		if err := json.Unmarshal([]byte(cmd.Val()), &g); err == nil {
			return &g, nil
		}
		r.logger.Warn("Cached replay is corrupt, falling back to file", "table_id", tableID)
	} else if err != redis.Nil {
		r.logger.Warn("Replay cache read failed, falling back to file", "table_id", tableID, "error", err)
	}

	data, err := os.ReadFile(r.parsedPath(tableID, perspective))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read parsed replay: %w", err)
	}

	var g replay.GameReplay
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parsed replay: %w", err)
	}
	if err := r.client.Set(ctx, key, string(data), replayTTL).Err(); err != nil {
		r.logger.Debug("Failed to re-cache replay", "table_id", tableID, "error", err)
	}
	return &g, nil
}

// Raw document operations (filesystem-backed)

func (r *RedisStorage) SaveRawDocument(ctx context.Context, tableID, perspective string, data []byte) error {
	return r.writeFile(r.rawPath(tableID, perspective))(data)
}

func (r *RedisStorage) LoadRawDocument(ctx context.Context, tableID, perspective string) ([]byte, error) {
	return r.readFile(r.rawPath(tableID, perspective))
}

func (r *RedisStorage) HasRawDocument(ctx context.Context, tableID, perspective string) (bool, error) {
	_, err := os.Stat(r.rawPath(tableID, perspective))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat raw document: %w", err)
	}
	return true, nil
}

func (r *RedisStorage) SaveTablePage(ctx context.Context, tableID, perspective string, data []byte) error {
	return r.writeFile(r.tablePath(tableID, perspective))(data)
}

func (r *RedisStorage) LoadTablePage(ctx context.Context, tableID, perspective string) ([]byte, error) {
	return r.readFile(r.tablePath(tableID, perspective))
}

func (r *RedisStorage) rawPath(tableID, perspective string) string {
	return filepath.Join(r.dataDir, "raw", perspective, tableID+".html")
}

func (r *RedisStorage) tablePath(tableID, perspective string) string {
	return filepath.Join(r.dataDir, "raw", perspective, tableID+"_table.html")
}

func (r *RedisStorage) parsedPath(tableID, perspective string) string {
	return filepath.Join(r.dataDir, "parsed", perspective, tableID+".json")
}

func (r *RedisStorage) writeFile(path string) func([]byte) error {
	return func(data []byte) error {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	}
}

func (r *RedisStorage) readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
