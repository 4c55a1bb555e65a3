package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgatm/replay-engine/internal/storage"
	"github.com/bgatm/replay-engine/pkg/replay"
)

func testReplayHandler(t *testing.T) (*ReplayHandler, *storage.MockStorage, *storage.Registry) {
	t.Helper()
	mock := storage.NewMockStorage()
	reg, err := storage.OpenRegistry(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return NewReplayHandler(mock, reg, testLogger()), mock, reg
}

func TestReplayHandler_List(t *testing.T) {
	h, _, reg := testReplayHandler(t)
	ctx := context.Background()

	require.NoError(t, reg.MarkScraped(ctx, storage.GameRecord{
		TableID:     "250604-1037",
		Perspective: "86296239",
		Players:     []string{"Alice", "Bob"},
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/replays", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var records []storage.GameRecord
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "250604-1037", records[0].TableID)
}

func TestReplayHandler_Read(t *testing.T) {
	h, mock, _ := testReplayHandler(t)

	winner := "Alice"
	require.NoError(t, mock.SaveReplay(context.Background(), &replay.GameReplay{
		ReplayID:          "250604-1037",
		PlayerPerspective: "86296239",
		Winner:            &winner,
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/replays/250604-1037?perspective=86296239", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var g replay.GameReplay
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&g))
	assert.Equal(t, "250604-1037", g.ReplayID)
	require.NotNil(t, g.Winner)
	assert.Equal(t, "Alice", *g.Winner)
}

func TestReplayHandler_ReadRequiresPerspective(t *testing.T) {
	h, _, _ := testReplayHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/replays/250604-1037", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReplayHandler_ReadNotFound(t *testing.T) {
	h, _, _ := testReplayHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/replays/999?perspective=1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReplayHandler_MethodNotAllowed(t *testing.T) {
	h, _, _ := testReplayHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/v1/replays/250604-1037", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
