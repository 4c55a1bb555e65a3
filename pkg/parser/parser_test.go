package parser

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgatm/replay-engine/pkg/replay"
)

func TestParseCompleteGame(t *testing.T) {
	g, err := New().Parse(fixtureDocument(), "250604-1037")
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	assert.Equal(t, "250604-1037", g.ReplayID)
	assert.Equal(t, "2025-06-04", g.GameDate)
	assert.Equal(t, 7, g.Metadata.TotalMoves)
	assert.Equal(t, "1h05m", g.Metadata.GameDuration)
	assert.Equal(t, 2, g.Generations)

	require.NotNil(t, g.Winner)
	assert.Equal(t, "Alice", *g.Winner)

	require.Len(t, g.Moves, 7)
	for i, m := range g.Moves {
		assert.Equal(t, i+1, m.MoveNumber)
	}

	third := g.Moves[2]
	assert.Equal(t, replay.ActionPlayCard, third.ActionType)
	assert.Equal(t, "Comet", third.ActionArguments.CardName)
	assert.Equal(t, "86296239", third.PlayerRef)
	assert.Equal(t, 19, third.GameState.PlayerResources["86296239"][replay.MegaCredits])

	last := g.Moves[6]
	assert.Equal(t, replay.ActionPass, last.ActionType)
	assert.Equal(t, -28, g.FinalState.Temperature)
	assert.Equal(t, 1, g.FinalState.Oceans)
	assert.Equal(t, 2, g.FinalState.Generation)
}

func TestParsePlayerSummaries(t *testing.T) {
	g, err := New().Parse(fixtureDocument(), "250604-1037")
	require.NoError(t, err)

	alice := g.Players["86296239"]
	require.NotNil(t, alice)
	assert.Equal(t, "Alice", alice.PlayerName)
	assert.Equal(t, "Tharsis Republic", alice.Corporation)
	assert.Equal(t, []string{"Comet"}, alice.CardsPlayed)
	assert.Equal(t, []string{"Terraformer"}, alice.MilestonesClaimed)
	require.NotNil(t, alice.FinalScore)
	assert.Equal(t, 30, *alice.FinalScore)
	require.NotNil(t, alice.FinalTR)
	assert.Equal(t, 26, *alice.FinalTR)
	require.NotNil(t, alice.ScoreBreakdown)
	assert.True(t, alice.ScoreBreakdown.Consistent())

	bob := g.Players["93236734"]
	require.NotNil(t, bob)
	assert.Equal(t, "Helion", bob.Corporation)
	require.NotNil(t, bob.FinalScore)
	assert.Equal(t, 25, *bob.FinalScore)
	assert.Empty(t, bob.CardsPlayed)
}

func TestParseDeterministic(t *testing.T) {
	// The fixture's scoring fragment covers both players and both disagree
	// with the tracked TR, so the reconciliation notes and score warnings
	// exercise the multi-player orderings. One run in many is enough to
	// expose order leaking in from map iteration.
	p := New()
	first, err := p.Parse(fixtureDocument(), "250604-1037")
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		g, err := p.Parse(fixtureDocument(), "250604-1037")
		require.NoError(t, err)
		got, err := json.Marshal(g)
		require.NoError(t, err)
		require.Equal(t, string(want), string(got),
			"reparse %d of the same document must be byte-identical", i+1)
	}
}

func TestParseScoreProgression(t *testing.T) {
	g, err := New().Parse(fixtureDocument(), "250604-1037")
	require.NoError(t, err)
	require.Len(t, g.ScoreProgression, 7)

	// Before the scoring fragment everything is the carried TR floor.
	first := g.ScoreProgression[0]
	assert.True(t, first.Inferred)
	assert.Equal(t, replay.StartTR, first.PerPlayer["86296239"].Total)

	sixth := g.ScoreProgression[5]
	assert.False(t, sixth.Inferred)
	assert.Equal(t, 30, sixth.PerPlayer["86296239"].Total)

	// The fragment carries forward past its move, marked inferred again.
	seventh := g.ScoreProgression[6]
	assert.True(t, seventh.Inferred)
	assert.Equal(t, 30, seventh.PerPlayer["86296239"].Total)

	require.Len(t, g.ParameterProgression, 7)
	assert.Equal(t, -30, g.ParameterProgression[0].Temperature)
	assert.Equal(t, -28, g.ParameterProgression[6].Temperature)
}

func TestParseWithTableMergesElo(t *testing.T) {
	g, err := New().ParseWithTable(fixtureDocument(), fixtureTablePage, "250604-1037")
	require.NoError(t, err)

	alice := g.Players["86296239"]
	require.NotNil(t, alice.Elo)
	assert.Equal(t, 1754, *alice.Elo.ArenaPoints)
	bob := g.Players["93236734"]
	require.NotNil(t, bob.Elo)
	assert.Equal(t, -23, *bob.Elo.ArenaPointsChange)
}

func TestParseRenumbersGappyLog(t *testing.T) {
	// Drop the log block numbered 4; the remaining six moves must come out
	// contiguous, with a warning.
	raw := fixtureDocument()
	start := strings.Index(raw, `<div class="replaylogs_move"><div class="smalltext">Move 4`)
	require.Greater(t, start, 0)
	end := strings.Index(raw[start:], `<div class="replaylogs_move"><div class="smalltext">Move 5`)
	require.Greater(t, end, 0)
	raw = raw[:start] + raw[start+end:]

	g, err := New().Parse(raw, "250604-1037")
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	require.Len(t, g.Moves, 6)
	for i, m := range g.Moves {
		assert.Equal(t, i+1, m.MoveNumber)
	}
	found := false
	for _, w := range g.Metadata.ParseWarnings {
		if strings.Contains(w, "renumbered") {
			found = true
		}
	}
	assert.True(t, found, "expected a renumbering warning, got %v", g.Metadata.ParseWarnings)
}

func TestParseTieLeavesWinnerUnset(t *testing.T) {
	raw := strings.Replace(fixtureDocument(),
		`"93236734":{"total":25,"total_details":{"tr":24,"awards":0,"milestones":0,"cities":0,"greeneries":0,"cards":1}}`,
		`"93236734":{"total":30,"total_details":{"tr":24,"awards":0,"milestones":0,"cities":0,"greeneries":0,"cards":6}}`,
		1)
	g, err := New().Parse(raw, "250604-1037")
	require.NoError(t, err)

	assert.Nil(t, g.Winner)
	found := false
	for _, w := range g.Metadata.ParseWarnings {
		if strings.Contains(w, "tie") {
			found = true
		}
	}
	assert.True(t, found, "expected a tie warning, got %v", g.Metadata.ParseWarnings)
}

func TestParseNoScoresMeansUnavailable(t *testing.T) {
	raw := strings.Replace(fixtureDocument(), `"type":"scoringTable"`, `"type":"ignored"`, 1)
	g, err := New().Parse(raw, "250604-1037")
	require.NoError(t, err)

	assert.Nil(t, g.Winner)
	for id, p := range g.Players {
		assert.Nil(t, p.FinalScore, "player %s should have no final score", id)
		assert.Nil(t, p.ScoreBreakdown, "player %s should have no breakdown", id)
	}
	for _, s := range g.ScoreProgression {
		assert.True(t, s.Inferred)
	}
}

func TestParseFatalOnlyWithoutLog(t *testing.T) {
	_, err := New().Parse("<html></html>", "x")
	require.Error(t, err)
	var extractionErr *ExtractionError
	assert.ErrorAs(t, err, &extractionErr)
}
