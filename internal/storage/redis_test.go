package storage

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgatm/replay-engine/pkg/replay"
)

func testStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStorage(mr.Addr(), t.TempDir(), slog.Default())
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func testReplay() *replay.GameReplay {
	winner := "Alice"
	return &replay.GameReplay{
		ReplayID:          "250604-1037",
		PlayerPerspective: "86296239",
		Winner:            &winner,
		Players: map[string]*replay.PlayerSummary{
			"86296239": {PlayerName: "Alice"},
		},
	}
}

func TestSaveAndLoadReplay(t *testing.T) {
	s, mr := testStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveReplay(ctx, testReplay()))

	// The save both caches and writes the file.
	assert.True(t, mr.Exists("replay:250604-1037:86296239"))

	got, err := s.LoadReplay(ctx, "250604-1037", "86296239")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "250604-1037", got.ReplayID)
	require.NotNil(t, got.Winner)
	assert.Equal(t, "Alice", *got.Winner)
}

func TestLoadReplayFallsBackToFile(t *testing.T) {
	s, mr := testStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveReplay(ctx, testReplay()))
	mr.FlushAll()

	got, err := s.LoadReplay(ctx, "250604-1037", "86296239")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.Players["86296239"].PlayerName)

	// The fallback re-primes the cache.
	assert.True(t, mr.Exists("replay:250604-1037:86296239"))
}

func TestLoadReplayAbsent(t *testing.T) {
	s, _ := testStorage(t)
	got, err := s.LoadReplay(context.Background(), "999", "1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRawDocumentRoundTrip(t *testing.T) {
	s, _ := testStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRawDocument(ctx, "250604-1037", "86296239", []byte("<html>doc</html>")))
	got, err := s.LoadRawDocument(ctx, "250604-1037", "86296239")
	require.NoError(t, err)
	assert.Equal(t, []byte("<html>doc</html>"), got)

	absent, err := s.LoadRawDocument(ctx, "other", "86296239")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestHasRawDocument(t *testing.T) {
	s, _ := testStorage(t)
	ctx := context.Background()

	exists, err := s.HasRawDocument(ctx, "250604-1037", "86296239")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.SaveRawDocument(ctx, "250604-1037", "86296239", []byte("<html>doc</html>")))

	exists, err = s.HasRawDocument(ctx, "250604-1037", "86296239")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTablePageRoundTrip(t *testing.T) {
	s, _ := testStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTablePage(ctx, "250604-1037", "86296239", []byte("<html>table</html>")))
	got, err := s.LoadTablePage(ctx, "250604-1037", "86296239")
	require.NoError(t, err)
	assert.Equal(t, []byte("<html>table</html>"), got)
}

func TestPing(t *testing.T) {
	s, mr := testStorage(t)
	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}
