package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bgatm/replay-engine/pkg/replay"
)

// Parser is the engine entry point. It holds no state; the zero value is
// ready to use and safe for concurrent callers.
type Parser struct{}

// New returns a Parser.
func New() *Parser { return &Parser{} }

// Parse reconstructs one match from its raw replay document. The only
// fatal condition is a document with no recoverable log; everything else
// degrades into metadata on the returned replay.
func (p *Parser) Parse(raw, replayID string) (*replay.GameReplay, error) {
	return p.ParseWithTable(raw, "", replayID)
}

// ParseWithTable additionally merges ELO data from the match's table page,
// when one accompanies the replay document.
func (p *Parser) ParseWithTable(raw, tableHTML, replayID string) (*replay.GameReplay, error) {
	doc, err := ExtractDocument(raw)
	if err != nil {
		return nil, err
	}

	scores := ExtractScores(doc)
	var validIDs map[string]bool
	if ids := scores.PlayerIDs(); len(ids) > 0 {
		validIDs = ids
	}
	table := MapPlayers(doc, validIDs)
	track := TrackStates(doc, table)
	rec := reconcile(doc.Entries, track, scores, table)

	g := &replay.GameReplay{
		ReplayID: replayID,
		GameDate: extractGameDate(doc.raw),
		Winner:   rec.winner,
		Players:  map[string]*replay.PlayerSummary{},
	}

	g.Moves = assembleMoves(doc, track, rec)
	g.Players = assemblePlayers(doc, table, track, rec, scores)
	if tableHTML != "" {
		mergeElo(g.Players, ParseEloData(tableHTML))
	}

	if n := len(g.Moves); n > 0 {
		g.FinalState = g.Moves[n-1].GameState
		g.Generations = g.FinalState.Generation
	}
	g.ScoreProgression = assembleScoreProgression(rec)
	g.ParameterProgression = assembleParameterProgression(g.Moves)

	g.Metadata = replay.Metadata{
		ParseWarnings:       collectWarnings(doc, table, scores, rec),
		ReconciliationNotes: append(append([]string{}, track.Notes...), rec.notes...),
		TotalMoves:          len(g.Moves),
		GameDuration:        gameDuration(doc.Entries),
	}
	if err := g.Validate(); err != nil {
		g.Metadata.ParseWarnings = append(g.Metadata.ParseWarnings,
			fmt.Sprintf("reconstructed replay failed self-check: %v", err))
	}
	return g, nil
}

// assembleMoves renumbers the log entries into a contiguous 1..N sequence
// and attaches the tracked state and running scores to each.
func assembleMoves(doc *Document, track *TrackResult, rec *reconciled) []replay.MoveRecord {
	moves := make([]replay.MoveRecord, 0, len(doc.Entries))
	for i, entry := range doc.Entries {
		action, args := Classify(entry)
		st := track.States[i]

		if action == replay.ActionPlaceTile && args.TileLocation == "" {
			args.TileLocation = hexNameForMove(doc, entry.MoveNumber)
		}

		state := replay.GameState{
			Generation:       st.Params.Generation,
			Temperature:      st.Params.Temperature,
			Oxygen:           st.Params.Oxygen,
			Oceans:           st.Params.Oceans,
			PlayerResources:  st.Resources,
			PlayerProduction: st.Production,
			PlayerScore:      map[string]int{},
		}
		for id, b := range rec.scoreByMove[i] {
			state.PlayerScore[id] = b.Total
		}

		moves = append(moves, replay.MoveRecord{
			MoveNumber:        i + 1,
			Timestamp:         entry.Timestamp,
			PlayerRef:         st.PlayerID,
			ActionType:        action,
			Description:       entry.Description(),
			ActionArguments:   args,
			ResourceChanges:   st.ResourceChanges,
			ProductionChanges: st.ProductionChanges,
			ParameterChanges:  st.ParameterChanges,
			GameState:         state,
		})
	}
	return moves
}

func assemblePlayers(doc *Document, table *PlayerTable, track *TrackResult, rec *reconciled, scores *ScoreData) map[string]*replay.PlayerSummary {
	corps := Corporations(doc, table)
	players := map[string]*replay.PlayerSummary{}
	for _, id := range table.Order {
		players[id] = &replay.PlayerSummary{
			PlayerName:        table.NameFor(id),
			Corporation:       corps[id],
			CardsPlayed:       []string{},
			MilestonesClaimed: []string{},
			AwardsFunded:      []string{},
		}
	}

	if n := len(track.States); n > 0 {
		last := track.States[n-1]
		for id, p := range players {
			p.FinalResources = last.Resources[id]
			p.FinalProduction = last.Production[id]
		}
	}

	for i, entry := range doc.Entries {
		action, args := Classify(entry)
		p := players[track.States[i].PlayerID]
		if p == nil {
			continue
		}
		switch action {
		case replay.ActionPlayCard:
			if args.CardName != "" {
				p.CardsPlayed = append(p.CardsPlayed, args.CardName)
			}
		case replay.ActionClaimMilestone:
			if args.Milestone != "" {
				p.MilestonesClaimed = append(p.MilestonesClaimed, displayName(doc.MilestoneNames, args.Milestone))
			}
		case replay.ActionFundAward:
			if args.Award != "" {
				p.AwardsFunded = append(p.AwardsFunded, displayName(doc.AwardNames, args.Award))
			}
		}
	}

	// Authoritative finals only: a player the scoring data never covered
	// keeps nil score fields, which readers must treat as unavailable.
	for id, b := range rec.finalScores {
		p := players[id]
		if p == nil {
			continue
		}
		bc := b
		p.ScoreBreakdown = &bc
		total, tr := b.Total, b.TRRating
		p.FinalScore = &total
		p.FinalTR = &tr
	}
	return players
}

// displayName upgrades a short name from the log text to the full display
// name the page dictionaries carry, when one matches.
func displayName(dict map[string]string, short string) string {
	for _, full := range dict {
		if full == short || strings.HasPrefix(full, short) {
			return full
		}
	}
	return short
}

// hexNameForMove resolves a placed tile's board hex through the gamelogs
// placement events and the hex name dictionary.
func hexNameForMove(doc *Document, moveNumber int) string {
	if doc.Gamelogs == nil {
		return ""
	}
	e := doc.Gamelogs.EntryForMove(moveNumber)
	if e == nil {
		return ""
	}
	for _, ev := range e.Events {
		if strings.HasPrefix(ev.Args.TokenID, "tile_") && strings.HasPrefix(ev.Args.PlaceID, "hex_") {
			if name, ok := doc.HexNames[ev.Args.PlaceID]; ok {
				return name
			}
			return ev.Args.PlaceID
		}
	}
	return ""
}

func assembleScoreProgression(rec *reconciled) []replay.ScoreSnapshot {
	out := make([]replay.ScoreSnapshot, 0, len(rec.scoreByMove))
	for i, perPlayer := range rec.scoreByMove {
		out = append(out, replay.ScoreSnapshot{
			MoveIndex: i + 1,
			PerPlayer: perPlayer,
			Inferred:  rec.inferred[i],
		})
	}
	return out
}

func assembleParameterProgression(moves []replay.MoveRecord) []replay.ParameterPoint {
	out := make([]replay.ParameterPoint, 0, len(moves))
	for _, m := range moves {
		out = append(out, replay.ParameterPoint{
			MoveIndex:   m.MoveNumber,
			Generation:  m.GameState.Generation,
			Temperature: m.GameState.Temperature,
			Oxygen:      m.GameState.Oxygen,
			Oceans:      m.GameState.Oceans,
		})
	}
	return out
}

func collectWarnings(doc *Document, table *PlayerTable, scores *ScoreData, rec *reconciled) []string {
	warnings := []string{}
	warnings = append(warnings, doc.Warnings...)
	warnings = append(warnings, table.Warnings...)
	warnings = append(warnings, scores.Warnings...)
	warnings = append(warnings, rec.warnings...)
	for i, entry := range doc.Entries {
		if entry.MoveNumber != i+1 {
			warnings = append(warnings, "log move numbers were not contiguous, moves renumbered")
			break
		}
	}
	return warnings
}

var gameDateRe = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

// extractGameDate takes the first ISO date the document mentions. Absent
// dates stay empty; the engine never substitutes the current time, which
// would break byte-identical reparsing.
func extractGameDate(raw string) string {
	if m := gameDateRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

// gameDuration derives the wall-clock span between the first and last move
// timestamps. A last timestamp earlier than the first means the match
// crossed midnight.
func gameDuration(entries []LogEntry) string {
	first, last := "", ""
	for _, e := range entries {
		if e.Timestamp == "" {
			continue
		}
		if first == "" {
			first = e.Timestamp
		}
		last = e.Timestamp
	}
	if first == "" || last == "" {
		return ""
	}
	start, err1 := time.Parse("15:04:05", first)
	end, err2 := time.Parse("15:04:05", last)
	if err1 != nil || err2 != nil {
		return ""
	}
	d := end.Sub(start)
	if d < 0 {
		d += 24 * time.Hour
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
