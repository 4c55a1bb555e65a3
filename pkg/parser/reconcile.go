package parser

import (
	"fmt"
	"sort"

	"github.com/bgatm/replay-engine/pkg/replay"
)

// reconciled is the merge of the tracker's inferred progression with the
// authoritative scoring fragments. Precedence is fixed: where both sources
// speak, the authoritative fragment wins and the inferred value survives
// only inside a note. Where only the tracker speaks, its value is used and
// the snapshot is marked inferred.
type reconciled struct {
	scoreByMove []map[string]replay.ScoreBreakdown
	inferred    []bool
	finalScores map[string]replay.ScoreBreakdown
	winner      *string
	notes       []string
	warnings    []string
}

func reconcile(entries []LogEntry, track *TrackResult, scores *ScoreData, table *PlayerTable) *reconciled {
	rec := &reconciled{
		scoreByMove: make([]map[string]replay.ScoreBreakdown, len(entries)),
		inferred:    make([]bool, len(entries)),
		finalScores: map[string]replay.ScoreBreakdown{},
	}

	snapByMove := map[int]map[string]replay.ScoreBreakdown{}
	for _, s := range scores.Snapshots {
		snapByMove[s.MoveNumber] = s.PerPlayer
	}

	// Every player starts at the TR floor; this also seeds players the
	// scoring data never mentions.
	current := map[string]replay.ScoreBreakdown{}
	for _, id := range table.Order {
		current[id] = replay.ScoreBreakdown{TRRating: replay.StartTR, Total: replay.StartTR}
	}

	for i, entry := range entries {
		snap, authoritative := snapByMove[entry.MoveNumber]
		if authoritative {
			// Note order must not depend on map iteration, or reparsing
			// the same document stops being byte-identical.
			for _, id := range sortedBreakdownIDs(snap) {
				b := snap[id]
				if i < len(track.States) {
					if trTracked, ok := track.States[i].TR[id]; ok && trTracked != b.TRRating {
						rec.notes = append(rec.notes,
							fmt.Sprintf("move %d: player %s TR tracked %d, scoring fragment %d, fragment kept",
								entry.MoveNumber, id, trTracked, b.TRRating))
					}
				}
				current[id] = b
			}
		} else if i < len(track.States) {
			// Inferred: fold the tracker's TR into the carried snapshot so
			// the running total still moves between fragments.
			for id, tr := range track.States[i].TR {
				b := current[id]
				if b.TRRating != tr {
					b.Total += tr - b.TRRating
					b.TRRating = tr
					current[id] = b
				}
			}
		}
		rec.scoreByMove[i] = cloneBreakdowns(current)
		rec.inferred[i] = !authoritative
	}

	for id, b := range scores.Final {
		rec.finalScores[id] = b
	}
	rec.decideWinner(table)
	return rec
}

// decideWinner picks the player with the highest authoritative final total.
// An exact tie leaves the winner unset; no authoritative scores at all does
// the same. Both are warnings, never errors.
func (r *reconciled) decideWinner(table *PlayerTable) {
	if len(r.finalScores) == 0 {
		r.warnings = append(r.warnings, "winner undetermined: no authoritative final scores")
		return
	}
	ids := sortedBreakdownIDs(r.finalScores)

	best, bestTotal, tied := "", 0, false
	for _, id := range ids {
		total := r.finalScores[id].Total
		switch {
		case best == "" || total > bestTotal:
			best, bestTotal, tied = id, total, false
		case total == bestTotal:
			tied = true
		}
	}
	if tied {
		r.warnings = append(r.warnings, fmt.Sprintf("winner undetermined: tie at %d points", bestTotal))
		return
	}
	name := table.NameFor(best)
	r.winner = &name
}

func sortedBreakdownIDs(m map[string]replay.ScoreBreakdown) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cloneBreakdowns(m map[string]replay.ScoreBreakdown) map[string]replay.ScoreBreakdown {
	out := make(map[string]replay.ScoreBreakdown, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
