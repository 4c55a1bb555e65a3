package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTableIDs(t *testing.T) {
	page := []byte(`
		<a href="/table?table=250604103">Game one</a>
		<span>#250604104</span>
		<a href="/table?table=250604103">Game one again</a>
	`)

	frontier := NewFrontier(1000)
	ids := ExtractTableIDs(page, frontier)
	assert.Equal(t, []string{"250604103", "250604104"}, ids)

	// A second page repeating a table yields nothing new.
	again := ExtractTableIDs(page, frontier)
	assert.Empty(t, again)
}

func TestFrontierVisit(t *testing.T) {
	frontier := NewFrontier(100)

	assert.True(t, frontier.Visit("250604103"))
	assert.False(t, frontier.Visit("250604103"))
	assert.True(t, frontier.Visit("250604105"))
}

func TestExtractTableIDsIgnoresShortNumbers(t *testing.T) {
	page := []byte(`<span>Move 42</span> <a href="?table=12345">short</a>`)

	ids := ExtractTableIDs(page, NewFrontier(100))
	assert.Empty(t, ids)
}
