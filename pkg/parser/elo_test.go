package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEloData(t *testing.T) {
	elo := ParseEloData(fixtureTablePage)
	require.Len(t, elo, 2)

	alice := elo["Alice"]
	require.NotNil(t, alice)
	require.NotNil(t, alice.ArenaPoints)
	assert.Equal(t, 1754, *alice.ArenaPoints)
	require.NotNil(t, alice.ArenaPointsChange)
	assert.Equal(t, 23, *alice.ArenaPointsChange)
	require.NotNil(t, alice.GameRank)
	assert.Equal(t, 612, *alice.GameRank)
	require.NotNil(t, alice.GameRankChange)
	assert.Equal(t, 11, *alice.GameRankChange)

	bob := elo["Bob"]
	require.NotNil(t, bob)
	assert.Equal(t, -23, *bob.ArenaPointsChange)
	assert.Equal(t, -11, *bob.GameRankChange)
	assert.Equal(t, 1401, *bob.ArenaPoints)
	assert.Equal(t, 598, *bob.GameRank)
}

func TestParseEloDataPartialEntry(t *testing.T) {
	// Only the arena pair is present; the game fields must stay nil.
	page := `<div class="score-entry"><span class="playername">Alice</span>` +
		`<div class="winpoints">+9</div><div class="newrank">1500 pts</div></div>`
	elo := ParseEloData(page)
	require.Len(t, elo, 1)
	alice := elo["Alice"]
	assert.Equal(t, 9, *alice.ArenaPointsChange)
	assert.Equal(t, 1500, *alice.ArenaPoints)
	assert.Nil(t, alice.GameRank)
	assert.Nil(t, alice.GameRankChange)
}

func TestParseEloDataEmptyPage(t *testing.T) {
	assert.Empty(t, ParseEloData("<html><body>no entries</body></html>"))
}
