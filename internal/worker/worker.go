package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bgatm/replay-engine/internal/queue"
	pkgqueue "github.com/bgatm/replay-engine/pkg/queue"
)

const (
	workerTimeout = 5 * time.Second
)

// Worker processes jobs from the parse queue
type Worker struct {
	id          string
	queue       *queue.JobQueue
	processor   *ParseProcessor
	redisClient *redis.Client
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance
func New(jobQueue *queue.JobQueue, processor *ParseProcessor, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:          workerID,
		queue:       jobQueue,
		processor:   processor,
		redisClient: redisClient,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins processing jobs from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextJob(); err != nil {
				w.log.Error("Error processing job", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextJob pulls the next job from the queue and processes it
func (w *Worker) processNextJob() error {
	// Block waiting for the next job (timeout to check for shutdown)
	ctx, cancel := context.WithTimeout(w.ctx, workerTimeout)
	defer cancel()

	job, err := w.queue.BlockingDequeue(ctx, workerTimeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			// Timed out empty or shutting down, which is normal
			return nil
		}
		return fmt.Errorf("failed to dequeue job: %w", err)
	}

	if job == nil {
		// Queue is empty or timeout occurred, which is normal
		return nil
	}

	w.log.Info("Received job from queue",
		"worker_id", w.id,
		"job_id", job.JobID,
		"type", job.Type,
		"table_id", job.TableID,
	)

	// Try to acquire the table lock
	locked, err := w.acquireTableLock(job.TableID)
	if err != nil {
		return fmt.Errorf("failed to acquire table lock: %w", err)
	}
	if !locked {
		// Another worker is processing this table.
		// Re-queue at the end and try the next job.
		w.log.Info("Table already locked, re-queueing job",
			"worker_id", w.id,
			"job_id", job.JobID,
			"table_id", job.TableID,
		)
		if err := w.queue.Enqueue(w.ctx, job); err != nil {
			return fmt.Errorf("failed to re-queue job: %w", err)
		}
		return nil
	}

	// Process the job, blocking the worker until done
	defer w.releaseTableLock(job.TableID)
	return w.processJob(job)
}

// acquireTableLock attempts to acquire a lock for a table.
// Returns true if the lock was acquired, false if already locked.
func (w *Worker) acquireTableLock(tableID string) (bool, error) {
	lockKey := fmt.Sprintf("table-lock:%s", tableID)

	result, err := w.redisClient.SetNX(w.ctx, lockKey, w.id, 30*time.Second).Result()
	if err != nil {
		return false, err
	}

	return result, nil
}

// releaseTableLock releases the lock for a table
func (w *Worker) releaseTableLock(tableID string) {
	lockKey := fmt.Sprintf("table-lock:%s", tableID)

	// Only delete if we own the lock
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	if err := script.Run(w.ctx, w.redisClient, []string{lockKey}, w.id).Err(); err != nil {
		w.log.Error("Failed to release table lock", "error", err, "table_id", tableID)
	}
}

// processJob processes a single job using the ParseProcessor
func (w *Worker) processJob(job *pkgqueue.Job) error {
	w.log.Info("Processing job",
		"worker_id", w.id,
		"job_id", job.JobID,
		"type", job.Type,
		"table_id", job.TableID,
	)

	start := time.Now()

	switch job.Type {
	case pkgqueue.JobTypeParse:
		if err := w.processor.ProcessParse(w.ctx, job); err != nil {
			w.log.Error("Failed to process parse job",
				"error", err,
				"job_id", job.JobID,
				"table_id", job.TableID,
			)
			return fmt.Errorf("failed to process parse job: %w", err)
		}

		w.log.Info("Parse job processed successfully",
			"worker_id", w.id,
			"job_id", job.JobID,
			"table_id", job.TableID,
			"duration_ms", time.Since(start).Milliseconds(),
		)

	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	return nil
}
