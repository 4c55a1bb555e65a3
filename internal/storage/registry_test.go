package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := OpenRegistry(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRegistryScrapeThenParse(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	scraped, err := r.IsScraped(ctx, "250604-1037", "86296239")
	require.NoError(t, err)
	assert.False(t, scraped)

	require.NoError(t, r.MarkScraped(ctx, GameRecord{
		TableID:     "250604-1037",
		Perspective: "86296239",
		Players:     []string{"Alice", "Bob"},
		Version:     "250604-1000",
		Arena:       true,
	}))

	scraped, err = r.IsScraped(ctx, "250604-1037", "86296239")
	require.NoError(t, err)
	assert.True(t, scraped)

	parsed, err := r.IsParsed(ctx, "250604-1037", "86296239")
	require.NoError(t, err)
	assert.False(t, parsed)

	require.NoError(t, r.MarkParsed(ctx, "250604-1037", "86296239"))
	parsed, err = r.IsParsed(ctx, "250604-1037", "86296239")
	require.NoError(t, err)
	assert.True(t, parsed)

	rec, err := r.Get(ctx, "250604-1037", "86296239")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []string{"Alice", "Bob"}, rec.Players)
	assert.True(t, rec.Arena)
	assert.NotNil(t, rec.ScrapedAt)
	assert.NotNil(t, rec.ParsedAt)
}

func TestRegistryPerspectivesAreDistinct(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.MarkScraped(ctx, GameRecord{TableID: "100", Perspective: "1"}))

	scraped, err := r.IsScraped(ctx, "100", "2")
	require.NoError(t, err)
	assert.False(t, scraped, "same table from another perspective is a separate record")
}

func TestRegistryGetAbsent(t *testing.T) {
	r := testRegistry(t)
	rec, err := r.Get(context.Background(), "nope", "1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRegistryListAndStats(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.MarkScraped(ctx, GameRecord{TableID: "100", Perspective: "1"}))
	require.NoError(t, r.MarkScraped(ctx, GameRecord{TableID: "200", Perspective: "1"}))
	require.NoError(t, r.MarkParsed(ctx, "100", "1"))

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	scraped, parsed, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, scraped)
	assert.Equal(t, 1, parsed)
}
