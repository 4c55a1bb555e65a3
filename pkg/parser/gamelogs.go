package parser

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString decodes a JSON field that the page emits sometimes as a string
// and sometimes as a number.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// Int returns the numeric value of the field, if it has one.
func (f FlexString) Int() (int, bool) {
	n, err := strconv.Atoi(string(f))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Gamelogs is the embedded g_gamelogs payload: one entry per move, each
// carrying the events the interface replayed for that move.
type Gamelogs struct {
	Data struct {
		Valid   int         `json:"valid"`
		Entries []MoveEntry `json:"data"`
	} `json:"data"`
}

// MoveEntry is the gamelogs record for one move.
type MoveEntry struct {
	MoveID FlexString  `json:"move_id"`
	Time   FlexString  `json:"time"`
	Events []MoveEvent `json:"data"`
}

// MoveNumber returns the entry's move number, if the id is numeric.
func (m MoveEntry) MoveNumber() (int, bool) { return m.MoveID.Int() }

// MoveEvent is one event inside a move entry.
type MoveEvent struct {
	UID  string    `json:"uid"`
	Type string    `json:"type"`
	Log  string    `json:"log"`
	Args EventArgs `json:"args"`
}

// EventArgs collects the argument fields the reconstruction reads. Events
// carry many more; unknown fields are ignored.
type EventArgs struct {
	PlayerID     FlexString      `json:"player_id"`
	ActivePlayer FlexString      `json:"active_player"`
	PlayerName   string          `json:"player_name"`
	CounterName  string          `json:"counter_name"`
	CounterValue FlexString      `json:"counter_value"`
	TokenName    string          `json:"token_name"`
	TokenID      string          `json:"token_id"`
	PlaceID      string          `json:"place_id"`
	Data         json.RawMessage `json:"data"`
}

// Entries returns the per-move records, nil-safe.
func (g *Gamelogs) Entries() []MoveEntry {
	if g == nil {
		return nil
	}
	return g.Data.Entries
}

// EntryForMove finds the record for a move number.
func (g *Gamelogs) EntryForMove(n int) *MoveEntry {
	for i := range g.Entries() {
		e := &g.Data.Entries[i]
		if got, ok := e.MoveNumber(); ok && got == n {
			return e
		}
	}
	return nil
}

// MaxMoveNumber returns the highest numeric move id present.
func (g *Gamelogs) MaxMoveNumber() int {
	max := 0
	for _, e := range g.Entries() {
		if n, ok := e.MoveNumber(); ok && n > max {
			max = n
		}
	}
	return max
}

// ActorForMove returns the player id acting in a move, preferring the
// active_player field of the move's first event over plain player_id.
func (g *Gamelogs) ActorForMove(n int) (string, bool) {
	e := g.EntryForMove(n)
	if e == nil || len(e.Events) == 0 {
		return "", false
	}
	args := e.Events[0].Args
	if args.ActivePlayer != "" {
		return args.ActivePlayer.String(), true
	}
	if args.PlayerID != "" {
		return args.PlayerID.String(), true
	}
	return "", false
}

// CounterUpdate is one absolute counter snapshot from the gamelogs.
type CounterUpdate struct {
	MoveNumber  int
	PlayerID    string
	CounterName string
	TokenName   string
	Value       int
}

// CounterUpdates returns every counter snapshot in move order. Snapshots
// are absolute values, not deltas.
func (g *Gamelogs) CounterUpdates() []CounterUpdate {
	var updates []CounterUpdate
	for _, e := range g.Entries() {
		n, ok := e.MoveNumber()
		if !ok {
			continue
		}
		for _, ev := range e.Events {
			v, numeric := ev.Args.CounterValue.Int()
			if !numeric {
				continue
			}
			if ev.Args.CounterName == "" && ev.Args.TokenName == "" {
				continue
			}
			updates = append(updates, CounterUpdate{
				MoveNumber:  n,
				PlayerID:    ev.Args.PlayerID.String(),
				CounterName: ev.Args.CounterName,
				TokenName:   ev.Args.TokenName,
				Value:       v,
			})
		}
	}
	return updates
}

// PlayerMapping collects the name-to-id pairs the gamelogs expose, keeping
// only ids in the valid set (pass nil to keep everything).
func (g *Gamelogs) PlayerMapping(validIDs map[string]bool) map[string]string {
	mapping := map[string]string{}
	for _, e := range g.Entries() {
		for _, ev := range e.Events {
			id := ev.Args.PlayerID.String()
			name := strings.TrimSpace(ev.Args.PlayerName)
			if id == "" || name == "" {
				continue
			}
			if validIDs != nil && !validIDs[id] {
				continue
			}
			mapping[name] = id
		}
	}
	return mapping
}

// tileToHex maps placed tile token ids to their board hexes.
func (g *Gamelogs) tileToHex() map[string]string {
	out := map[string]string{}
	for _, e := range g.Entries() {
		for _, ev := range e.Events {
			if strings.HasPrefix(ev.Args.TokenID, "tile_") && strings.HasPrefix(ev.Args.PlaceID, "hex_") {
				out[ev.Args.TokenID] = ev.Args.PlaceID
			}
		}
	}
	return out
}

// ScoringFragment is one authoritative scoringTable event.
type ScoringFragment struct {
	MoveNumber int
	Data       map[string]ScoringEntry
}

// ScoringEntry is one player's slice of a scoringTable fragment.
type ScoringEntry struct {
	Total        *int          `json:"total"`
	TotalDetails ScoreDetails  `json:"total_details"`
	Details      ScoringDetail `json:"details"`
}

// ScoreDetails is the component breakdown inside a scoring fragment.
type ScoreDetails struct {
	TR         int `json:"tr"`
	Awards     int `json:"awards"`
	Milestones int `json:"milestones"`
	Cities     int `json:"cities"`
	Greeneries int `json:"greeneries"`
	Cards      int `json:"cards"`
}

// ScoringDetail carries the per-item VP sources keyed by raw element id
// (card_X, milestone_N, award_N, tile_N). Values are VP amounts.
type ScoringDetail struct {
	Cards      map[string]json.RawMessage `json:"cards"`
	Milestones map[string]json.RawMessage `json:"milestones"`
	Awards     map[string]json.RawMessage `json:"awards"`
	Cities     map[string]json.RawMessage `json:"cities"`
	Greeneries map[string]json.RawMessage `json:"greeneries"`
}

// ScoringFragments returns every scoringTable event in move order.
func (g *Gamelogs) ScoringFragments() []ScoringFragment {
	var out []ScoringFragment
	for _, e := range g.Entries() {
		n, ok := e.MoveNumber()
		if !ok {
			continue
		}
		for _, ev := range e.Events {
			if ev.Type != "scoringTable" || len(ev.Args.Data) == 0 {
				continue
			}
			var data map[string]ScoringEntry
			if err := json.Unmarshal(ev.Args.Data, &data); err != nil {
				continue
			}
			if len(data) == 0 {
				continue
			}
			out = append(out, ScoringFragment{MoveNumber: n, Data: data})
		}
	}
	return out
}
