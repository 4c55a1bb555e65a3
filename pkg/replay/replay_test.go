package replay

import (
	"strings"
	"testing"
)

func TestActionTypeValid(t *testing.T) {
	for _, a := range ActionTypes {
		if !a.Valid() {
			t.Errorf("expected %q to be valid", a)
		}
	}
	if ActionType("wildcat_strike").Valid() {
		t.Error("unknown action type reported valid")
	}
}

func TestResourceByCode(t *testing.T) {
	tests := []struct {
		code       string
		want       Resource
		production bool
		ok         bool
	}{
		{"m", MegaCredits, false, true},
		{"pm", MegaCredits, true, true},
		{"s", Steel, false, true},
		{"ps", Steel, true, true},
		{"u", Titanium, false, true},
		{"h", Heat, false, true},
		{"pe", Energy, true, true},
		{"x", "", false, false},
		{"pz", "", true, false},
	}
	for _, tc := range tests {
		got, production, ok := ResourceByCode(tc.code)
		if got != tc.want || production != tc.production || ok != tc.ok {
			t.Errorf("ResourceByCode(%q) = (%q, %v, %v), want (%q, %v, %v)",
				tc.code, got, production, ok, tc.want, tc.production, tc.ok)
		}
	}
}

func TestResourceByName(t *testing.T) {
	tests := []struct {
		name       string
		want       Resource
		production bool
		ok         bool
	}{
		{"M€", MegaCredits, false, true},
		{"MC", MegaCredits, false, true},
		{"MC Production", MegaCredits, true, true},
		{"Plants", Plant, false, true},
		{"Heat Production", Heat, true, true},
		{" Steel ", Steel, false, true},
		{"TR", TR, false, true},
		{"Microbes", "", false, false},
	}
	for _, tc := range tests {
		got, production, ok := ResourceByName(tc.name)
		if got != tc.want || production != tc.production || ok != tc.ok {
			t.Errorf("ResourceByName(%q) = (%q, %v, %v), want (%q, %v, %v)",
				tc.name, got, production, ok, tc.want, tc.production, tc.ok)
		}
	}
}

func TestClamping(t *testing.T) {
	if got := ClampResource(MegaCredits, -12); got != -12 {
		t.Errorf("M€ stock should be allowed negative, got %d", got)
	}
	if got := ClampResource(Plant, -3); got != 0 {
		t.Errorf("plant stock should floor at 0, got %d", got)
	}
	if got := ClampProduction(MegaCredits, -9); got != -5 {
		t.Errorf("M€ production should floor at -5, got %d", got)
	}
	if got := ClampProduction(MegaCredits, -4); got != -4 {
		t.Errorf("M€ production -4 is legal, got %d", got)
	}
	if got := ClampProduction(Energy, -1); got != 0 {
		t.Errorf("energy production should floor at 0, got %d", got)
	}
	if got := ClampTR(12); got != 20 {
		t.Errorf("TR should floor at 20, got %d", got)
	}
	if got := ClampTR(80); got != 63 {
		t.Errorf("TR should cap at 63, got %d", got)
	}
}

func TestScoreBreakdownConsistent(t *testing.T) {
	b := ScoreBreakdown{TRRating: 44, Milestones: 5, Awards: 2, Cards: 20, BoardTiles: 8, Total: 79}
	if !b.Consistent() {
		t.Error("breakdown with matching total reported inconsistent")
	}
	b.Total = 80
	if b.Consistent() {
		t.Error("breakdown with mismatched total reported consistent")
	}
}

func validReplay() *GameReplay {
	state := func(gen, temp, oxy, oceans int) GameState {
		return GameState{Generation: gen, Temperature: temp, Oxygen: oxy, Oceans: oceans}
	}
	return &GameReplay{
		ReplayID: "250604-1037",
		Players: map[string]*PlayerSummary{
			"86296239": {PlayerName: "amt"},
			"93236734": {PlayerName: "rwb"},
		},
		Moves: []MoveRecord{
			{MoveNumber: 1, PlayerRef: "86296239", ActionType: ActionPlayCard, GameState: state(1, -30, 0, 0)},
			{MoveNumber: 2, PlayerRef: "93236734", ActionType: ActionConvertHeat, GameState: state(1, -28, 0, 0)},
			{MoveNumber: 3, ActionType: ActionNewGeneration, GameState: state(2, -28, 0, 0)},
		},
		FinalState: state(2, -28, 0, 0),
	}
}

func TestValidateAcceptsWellFormedReplay(t *testing.T) {
	if err := validReplay().Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GameReplay)
		wantSub string
	}{
		{
			name:    "gap in move numbers",
			mutate:  func(g *GameReplay) { g.Moves[1].MoveNumber = 5 },
			wantSub: "want 2",
		},
		{
			name:    "unknown action type",
			mutate:  func(g *GameReplay) { g.Moves[0].ActionType = "trade" },
			wantSub: "unknown action type",
		},
		{
			name:    "unknown player ref",
			mutate:  func(g *GameReplay) { g.Moves[0].PlayerRef = "11111111" },
			wantSub: "unknown player",
		},
		{
			name:    "temperature regression",
			mutate:  func(g *GameReplay) { g.Moves[2].GameState.Temperature = -29; g.FinalState.Temperature = -29 },
			wantSub: "regresses",
		},
		{
			name:    "final state drift",
			mutate:  func(g *GameReplay) { g.FinalState.Oceans = 3 },
			wantSub: "final state",
		},
		{
			name: "score progression references stranger",
			mutate: func(g *GameReplay) {
				g.ScoreProgression = []ScoreSnapshot{{MoveIndex: 1, PerPlayer: map[string]ScoreBreakdown{"999": {}}}}
			},
			wantSub: "unknown player",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := validReplay()
			tc.mutate(g)
			err := g.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}
