package queue

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgqueue "github.com/bgatm/replay-engine/pkg/queue"
)

func testQueue(t *testing.T) *JobQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewJobQueue(NewClientFromRedis(rdb, slog.Default()))
}

func TestEnqueueDequeue(t *testing.T) {
	q := testQueue(t)
	ctx := context.Background()

	job := pkgqueue.NewParseJob("250604-1037", "86296239")
	require.NoError(t, q.Enqueue(ctx, job))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.JobID, got.JobID)
	assert.Equal(t, pkgqueue.JobTypeParse, got.Type)
	assert.Equal(t, "250604-1037", got.TableID)
	assert.Equal(t, "86296239", got.Perspective)
}

func TestDequeueEmpty(t *testing.T) {
	q := testQueue(t)

	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQueueOrdering(t *testing.T) {
	q := testQueue(t)
	ctx := context.Background()

	first := pkgqueue.NewParseJob("100", "1")
	second := pkgqueue.NewParseJob("200", "1")
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100", got.TableID)

	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "200", got.TableID)
}

func TestBlockingDequeueTimeout(t *testing.T) {
	q := testQueue(t)

	start := time.Now()
	got, err := q.BlockingDequeue(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestBlockingDequeueReturnsQueuedJob(t *testing.T) {
	q := testQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, pkgqueue.NewParseJob("300", "2")))

	got, err := q.BlockingDequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "300", got.TableID)
}
