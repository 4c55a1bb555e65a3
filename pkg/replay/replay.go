package replay

import "fmt"

// ActionType classifies a single move in the game log. The set is closed:
// every move carries exactly one of these values, never free text.
type ActionType string

const (
	ActionPlayCard        ActionType = "play_card"
	ActionPlaceTile       ActionType = "place_tile"
	ActionStandardProject ActionType = "standard_project"
	ActionPass            ActionType = "pass"
	ActionConvertHeat     ActionType = "convert_heat"
	ActionClaimMilestone  ActionType = "claim_milestone"
	ActionFundAward       ActionType = "fund_award"
	ActionActivateCard    ActionType = "activate_card"
	ActionNewGeneration   ActionType = "new_generation"
	ActionDraftCard       ActionType = "draft_card"
	ActionBuyCard         ActionType = "buy_card"
	ActionOther           ActionType = "other"
)

// ActionTypes lists every valid action type.
var ActionTypes = []ActionType{
	ActionPlayCard, ActionPlaceTile, ActionStandardProject, ActionPass,
	ActionConvertHeat, ActionClaimMilestone, ActionFundAward,
	ActionActivateCard, ActionNewGeneration, ActionDraftCard,
	ActionBuyCard, ActionOther,
}

// Valid reports whether t is one of the closed set of action types.
func (t ActionType) Valid() bool {
	for _, known := range ActionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Arguments carries the variant-specific data extracted for an action.
// Only the fields relevant to the action type are set.
type Arguments struct {
	CardName     string `json:"card_name,omitempty"`
	CardCost     *int   `json:"card_cost,omitempty"`
	TileType     string `json:"tile_type,omitempty"`
	TileLocation string `json:"tile_location,omitempty"`
	Milestone    string `json:"milestone,omitempty"`
	Award        string `json:"award,omitempty"`
	Project      string `json:"project,omitempty"`
	Generation   int    `json:"generation,omitempty"`
}

// ParameterState holds the global terraforming parameters at a point in the
// match. All four fields are monotonic: they never decrease across moves.
type ParameterState struct {
	Generation  int `json:"generation"`
	Temperature int `json:"temperature"`
	Oxygen      int `json:"oxygen"`
	Oceans      int `json:"oceans"`
}

// Start-of-game parameter values.
const (
	StartTemperature = -30
	StartOxygen      = 0
	StartOceans      = 0
	StartTR          = 20
)

// InitialParameters returns the state every match begins in.
func InitialParameters() ParameterState {
	return ParameterState{
		Generation:  1,
		Temperature: StartTemperature,
		Oxygen:      StartOxygen,
		Oceans:      StartOceans,
	}
}

// Resources maps a resource kind to an amount. The same shape is used for
// stocks and for production rates.
type Resources map[Resource]int

// Clone returns an independent copy of r.
func (r Resources) Clone() Resources {
	out := make(Resources, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ScoreBreakdown is the decomposition of a player's victory points into its
// named components. Total must equal the sum of the other fields whenever the
// breakdown came from an authoritative fragment.
type ScoreBreakdown struct {
	TRRating   int `json:"tr_rating"`
	Milestones int `json:"milestones"`
	Awards     int `json:"awards"`
	Cards      int `json:"cards"`
	BoardTiles int `json:"board_tiles"`
	Total      int `json:"total"`
}

// ComponentSum returns the sum of all components excluding Total.
func (b ScoreBreakdown) ComponentSum() int {
	return b.TRRating + b.Milestones + b.Awards + b.Cards + b.BoardTiles
}

// Consistent reports whether Total equals the sum of the components.
func (b ScoreBreakdown) Consistent() bool {
	return b.Total == b.ComponentSum()
}

// EloData holds the arena and game ELO figures parsed from a table page.
// All fields are optional; absence means the page did not expose them.
type EloData struct {
	ArenaPoints       *int `json:"arena_points,omitempty"`
	ArenaPointsChange *int `json:"arena_points_change,omitempty"`
	GameRank          *int `json:"game_rank,omitempty"`
	GameRankChange    *int `json:"game_rank_change,omitempty"`
}

// PlayerSummary aggregates everything known about one player at game end.
// Score fields are pointers so that "no authoritative score found" is
// distinguishable from a legitimate zero.
type PlayerSummary struct {
	PlayerName        string          `json:"player_name"`
	Corporation       string          `json:"corporation"`
	FinalScore        *int            `json:"final_score"`
	FinalTR           *int            `json:"final_tr"`
	FinalResources    Resources       `json:"final_resources,omitempty"`
	FinalProduction   Resources       `json:"final_production,omitempty"`
	ScoreBreakdown    *ScoreBreakdown `json:"score_breakdown"`
	CardsPlayed       []string        `json:"cards_played"`
	MilestonesClaimed []string        `json:"milestones_claimed"`
	AwardsFunded      []string        `json:"awards_funded"`
	Elo               *EloData        `json:"elo,omitempty"`
}

// GameState is the full reconstructed state after a move: the global
// parameters plus every player's stocks, production and running score.
type GameState struct {
	Generation       int                  `json:"generation"`
	Temperature      int                  `json:"temperature"`
	Oxygen           int                  `json:"oxygen"`
	Oceans           int                  `json:"oceans"`
	PlayerResources  map[string]Resources `json:"player_resources,omitempty"`
	PlayerProduction map[string]Resources `json:"player_production,omitempty"`
	PlayerScore      map[string]int       `json:"player_score,omitempty"`
}

// Parameters returns the global-parameter slice of the state.
func (s GameState) Parameters() ParameterState {
	return ParameterState{
		Generation:  s.Generation,
		Temperature: s.Temperature,
		Oxygen:      s.Oxygen,
		Oceans:      s.Oceans,
	}
}

// MoveRecord is one fully reconstructed move: the classified action, the
// deltas it implied, and the complete state after it resolved.
type MoveRecord struct {
	MoveNumber        int            `json:"move_number"`
	Timestamp         string         `json:"timestamp"`
	PlayerRef         string         `json:"player_ref"`
	ActionType        ActionType     `json:"action_type"`
	Description       string         `json:"description"`
	ActionArguments   Arguments      `json:"action_arguments"`
	ResourceChanges   Resources      `json:"resource_changes,omitempty"`
	ProductionChanges Resources      `json:"production_changes,omitempty"`
	ParameterChanges  map[string]int `json:"parameter_changes,omitempty"`
	GameState         GameState      `json:"game_state"`
}

// ScoreSnapshot is one entry of the score progression: the per-player
// breakdown in force at a move index. Inferred marks entries carried forward
// from an earlier authoritative fragment rather than extracted at this index.
type ScoreSnapshot struct {
	MoveIndex int                       `json:"move_index"`
	PerPlayer map[string]ScoreBreakdown `json:"per_player_score"`
	Inferred  bool                      `json:"inferred,omitempty"`
}

// ParameterPoint is one entry of the global-parameter progression.
type ParameterPoint struct {
	MoveIndex   int `json:"move_index"`
	Generation  int `json:"generation"`
	Temperature int `json:"temperature"`
	Oxygen      int `json:"oxygen"`
	Oceans      int `json:"oceans"`
}

// Metadata surfaces every non-fatal condition hit during reconstruction so
// the caller can tell inferred from authoritative from missing.
type Metadata struct {
	ParseWarnings       []string `json:"parse_warnings"`
	ReconciliationNotes []string `json:"reconciliation_notes"`
	TotalMoves          int      `json:"total_moves"`
	GameDuration        string   `json:"game_duration,omitempty"`
}

// GameReplay is the root of one reconstructed match.
type GameReplay struct {
	ReplayID             string                    `json:"replay_id"`
	PlayerPerspective    string                    `json:"player_perspective,omitempty"`
	GameDate             string                    `json:"game_date"`
	Winner               *string                   `json:"winner"`
	Generations          int                       `json:"generations"`
	Players              map[string]*PlayerSummary `json:"players"`
	Moves                []MoveRecord              `json:"moves"`
	FinalState           GameState                 `json:"final_state"`
	ScoreProgression     []ScoreSnapshot           `json:"score_progression"`
	ParameterProgression []ParameterPoint          `json:"parameter_progression"`
	Metadata             Metadata                  `json:"metadata"`
}

// Validate checks the structural invariants every reconstructed replay must
// satisfy: contiguous move numbering from 1, monotonic global parameters,
// referential integrity of player refs, and final state matching the last
// move. It returns the first violation found.
func (g *GameReplay) Validate() error {
	prev := InitialParameters()
	prev.Generation = 1
	for i, m := range g.Moves {
		if m.MoveNumber != i+1 {
			return fmt.Errorf("move %d has number %d, want %d", i, m.MoveNumber, i+1)
		}
		if !m.ActionType.Valid() {
			return fmt.Errorf("move %d has unknown action type %q", m.MoveNumber, m.ActionType)
		}
		if m.PlayerRef != "" {
			if _, ok := g.Players[m.PlayerRef]; !ok {
				return fmt.Errorf("move %d references unknown player %q", m.MoveNumber, m.PlayerRef)
			}
		}
		p := m.GameState.Parameters()
		if p.Generation < prev.Generation || p.Temperature < prev.Temperature ||
			p.Oxygen < prev.Oxygen || p.Oceans < prev.Oceans {
			return fmt.Errorf("move %d regresses global parameters", m.MoveNumber)
		}
		prev = p
	}
	for _, s := range g.ScoreProgression {
		for ref := range s.PerPlayer {
			if _, ok := g.Players[ref]; !ok {
				return fmt.Errorf("score progression at move %d references unknown player %q", s.MoveIndex, ref)
			}
		}
	}
	if n := len(g.Moves); n > 0 {
		last := g.Moves[n-1].GameState
		if last.Parameters() != g.FinalState.Parameters() {
			return fmt.Errorf("final state does not match last move state")
		}
	}
	return nil
}
