package worker

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgatm/replay-engine/internal/queue"
	"github.com/bgatm/replay-engine/internal/storage"
	pkgqueue "github.com/bgatm/replay-engine/pkg/queue"
)

func testWorker(t *testing.T) (*Worker, *storage.MockStorage, *queue.JobQueue) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	mock := storage.NewMockStorage()
	q := queue.NewJobQueue(queue.NewClientFromRedis(rdb, slog.Default()))
	processor := NewParseProcessor(mock, nil, slog.Default())
	w := New(q, processor, rdb, slog.Default(), "test-worker")
	t.Cleanup(w.Stop)
	return w, mock, q
}

func TestTableLock(t *testing.T) {
	w, _, _ := testWorker(t)

	locked, err := w.acquireTableLock("250604-1037")
	require.NoError(t, err)
	assert.True(t, locked)

	// Second acquisition of the same table fails while held.
	locked, err = w.acquireTableLock("250604-1037")
	require.NoError(t, err)
	assert.False(t, locked)

	w.releaseTableLock("250604-1037")

	locked, err = w.acquireTableLock("250604-1037")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestReleaseTableLockOnlyOwn(t *testing.T) {
	w, _, _ := testWorker(t)

	locked, err := w.acquireTableLock("100")
	require.NoError(t, err)
	require.True(t, locked)

	// A release by a worker that does not hold the lock is a no-op.
	other := New(nil, nil, w.redisClient, slog.Default(), "other-worker")
	defer other.Stop()
	other.releaseTableLock("100")

	locked, err = other.acquireTableLock("100")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestProcessNextJob(t *testing.T) {
	w, mock, q := testWorker(t)
	ctx := context.Background()

	require.NoError(t, mock.SaveRawDocument(ctx, "250604-1037", "86296239", []byte(rawDoc)))
	require.NoError(t, q.Enqueue(ctx, pkgqueue.NewParseJob("250604-1037", "86296239")))

	require.NoError(t, w.processNextJob())

	g, err := mock.LoadReplay(ctx, "250604-1037", "86296239")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, 2, g.Metadata.TotalMoves)

	// The lock is released once the job is done.
	locked, err := w.acquireTableLock("250604-1037")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestProcessNextJobRequeuesLockedTable(t *testing.T) {
	w, _, q := testWorker(t)
	ctx := context.Background()

	locked, err := w.acquireTableLock("300")
	require.NoError(t, err)
	require.True(t, locked)

	require.NoError(t, q.Enqueue(ctx, pkgqueue.NewParseJob("300", "1")))
	require.NoError(t, w.processNextJob())

	// The job went back on the queue instead of failing.
	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}

func TestProcessNextJobUnknownType(t *testing.T) {
	w, _, q := testWorker(t)
	ctx := context.Background()

	job := pkgqueue.NewParseJob("400", "1")
	job.Type = "bogus"
	require.NoError(t, q.Enqueue(ctx, job))

	err := w.processNextJob()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job type")
}
