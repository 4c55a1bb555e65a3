package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/bgatm/replay-engine/pkg/replay"
)

// ScoreSnapshot is one authoritative per-player scoring fragment, anchored
// to the move it was emitted at.
type ScoreSnapshot struct {
	MoveNumber int
	PerPlayer  map[string]replay.ScoreBreakdown
}

// ScoreData is the Score Extractor's output. Final holds the last
// authoritative breakdown per player; a player absent from Final has no
// authoritative score anywhere in the document, which callers must surface
// as unavailable rather than zero.
type ScoreData struct {
	Snapshots []ScoreSnapshot
	Final     map[string]replay.ScoreBreakdown
	Warnings  []string
}

// PlayerIDs returns the set of player ids the scoring data names.
func (s *ScoreData) PlayerIDs() map[string]bool {
	ids := map[string]bool{}
	for _, snap := range s.Snapshots {
		for id := range snap.PerPlayer {
			ids[id] = true
		}
	}
	return ids
}

// ExtractScores collects every scoring fragment of the document, preferring
// the embedded gamelogs and falling back to a raw scan when the gamelogs
// are missing. Never fails; an empty result means scores are unavailable.
func ExtractScores(doc *Document) *ScoreData {
	data := &ScoreData{Final: map[string]replay.ScoreBreakdown{}}

	var fragments []ScoringFragment
	if doc.Gamelogs != nil {
		fragments = doc.Gamelogs.ScoringFragments()
	}
	if len(fragments) == 0 {
		fragments = scanScoreFragments(doc.raw)
		if len(fragments) > 0 {
			data.Warnings = append(data.Warnings, "scoring data recovered by raw scan, gamelogs had none")
		}
	}

	for _, frag := range fragments {
		snap := ScoreSnapshot{MoveNumber: frag.MoveNumber, PerPlayer: map[string]replay.ScoreBreakdown{}}
		// Warnings are appended per player, so the ids must come out in a
		// fixed order for reparses to stay byte-identical.
		playerIDs := make([]string, 0, len(frag.Data))
		for id := range frag.Data {
			playerIDs = append(playerIDs, id)
		}
		sort.Strings(playerIDs)
		for _, playerID := range playerIDs {
			b, warn := breakdownFromEntry(frag.MoveNumber, playerID, frag.Data[playerID])
			if warn != "" {
				data.Warnings = append(data.Warnings, warn)
			}
			snap.PerPlayer[playerID] = b
			data.Final[playerID] = b
		}
		if len(snap.PerPlayer) > 0 {
			data.Snapshots = append(data.Snapshots, snap)
		}
	}

	sort.SliceStable(data.Snapshots, func(i, j int) bool {
		return data.Snapshots[i].MoveNumber < data.Snapshots[j].MoveNumber
	})
	return data
}

// breakdownFromEntry converts a raw scoring entry. A missing total falls
// back to the component sum; a total that disagrees with its components is
// kept as extracted and flagged.
func breakdownFromEntry(move int, playerID string, e ScoringEntry) (replay.ScoreBreakdown, string) {
	b := replay.ScoreBreakdown{
		TRRating:   e.TotalDetails.TR,
		Milestones: e.TotalDetails.Milestones,
		Awards:     e.TotalDetails.Awards,
		Cards:      e.TotalDetails.Cards,
		BoardTiles: e.TotalDetails.Cities + e.TotalDetails.Greeneries,
	}
	if e.Total == nil {
		b.Total = b.ComponentSum()
		return b, fmt.Sprintf("move %d: player %s scoring fragment has no total, using component sum", move, playerID)
	}
	b.Total = *e.Total
	if !b.Consistent() {
		return b, fmt.Sprintf("move %d: player %s total %d does not equal component sum %d",
			move, playerID, b.Total, b.ComponentSum())
	}
	return b, ""
}

var scoreDataStartRe = regexp.MustCompile(`"data":\{"\d+":\{`)

// scanScoreFragments recovers scoring fragments straight from the raw
// document when the gamelogs payload is unusable. Fragment order stands in
// for move order, so recovered snapshots number from one.
func scanScoreFragments(raw string) []ScoringFragment {
	var out []ScoringFragment
	offset := 0
	for {
		loc := scoreDataStartRe.FindStringIndex(raw[offset:])
		if loc == nil {
			return out
		}
		// Skip past `"data":` to the object itself.
		start := offset + loc[0] + len(`"data":`)
		payload, ok := balancedJSON(raw[start:])
		offset = start
		if !ok {
			offset++
			continue
		}
		var data map[string]ScoringEntry
		if err := json.Unmarshal([]byte(payload), &data); err == nil && scoreLike(data) {
			out = append(out, ScoringFragment{MoveNumber: len(out) + 1, Data: data})
		}
		offset = start + len(payload)
	}
}

var numericKeyRe = regexp.MustCompile(`^\d+$`)

func scoreLike(data map[string]ScoringEntry) bool {
	if len(data) == 0 {
		return false
	}
	sawTotal := false
	for id, e := range data {
		if !numericKeyRe.MatchString(id) {
			return false
		}
		if e.Total != nil {
			sawTotal = true
		}
	}
	return sawTotal
}
