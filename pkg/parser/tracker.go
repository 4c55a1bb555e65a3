package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bgatm/replay-engine/pkg/replay"
)

// MoveState is the tracker's output for one move: the folded state after the
// move resolved plus the deltas the move itself contributed.
type MoveState struct {
	Params            replay.ParameterState
	Resources         map[string]replay.Resources
	Production        map[string]replay.Resources
	TR                map[string]int
	PlayerID          string
	ResourceChanges   replay.Resources
	ProductionChanges replay.Resources
	ParameterChanges  map[string]int
}

// TrackResult is the full tracking progression with the reconciliation
// notes produced while folding.
type TrackResult struct {
	States []MoveState
	Notes  []string
}

// trackerFold is the mutable accumulator the tracker folds log entries
// into. Two sources feed it: deltas inferred from log text, and absolute
// counter snapshots from the gamelogs. Snapshots are authoritative; when
// they disagree with the folded value the snapshot wins and the
// disagreement becomes a note.
type trackerFold struct {
	params     replay.ParameterState
	resources  map[string]replay.Resources
	production map[string]replay.Resources
	tr         map[string]int
	notes      []string
}

func newTrackerFold(table *PlayerTable) *trackerFold {
	f := &trackerFold{
		params:     replay.InitialParameters(),
		resources:  map[string]replay.Resources{},
		production: map[string]replay.Resources{},
		tr:         map[string]int{},
	}
	for _, id := range table.Order {
		f.resources[id] = replay.Resources{}
		f.production[id] = replay.Resources{}
		f.tr[id] = replay.StartTR
	}
	return f
}

// TrackStates folds the document's log entries into per-move states.
func TrackStates(doc *Document, table *PlayerTable) *TrackResult {
	fold := newTrackerFold(table)
	counters := counterUpdatesByMove(doc)
	result := &TrackResult{States: make([]MoveState, 0, len(doc.Entries))}

	for _, entry := range doc.Entries {
		action, args := Classify(entry)
		actor := actorForEntry(doc, table, entry)
		before := fold.params

		if action == replay.ActionNewGeneration && args.Generation > fold.params.Generation {
			fold.params.Generation = args.Generation
		}

		resDelta, prodDelta := extractLineDeltas(entry)
		if actor != "" {
			fold.applyDeltas(actor, resDelta, prodDelta)
		} else if len(resDelta)+len(prodDelta) > 0 {
			fold.notes = append(fold.notes,
				fmt.Sprintf("move %d: resource changes with no attributable player, dropped", entry.MoveNumber))
		}

		fold.applySnapshots(doc, entry.MoveNumber, counters[entry.MoveNumber])

		result.States = append(result.States, MoveState{
			Params:            fold.params,
			Resources:         cloneStateMap(fold.resources),
			Production:        cloneStateMap(fold.production),
			TR:                cloneIntMap(fold.tr),
			PlayerID:          actor,
			ResourceChanges:   resDelta,
			ProductionChanges: prodDelta,
			ParameterChanges:  paramDiff(before, fold.params),
		})
	}

	result.Notes = fold.notes
	return result
}

func (f *trackerFold) applyDeltas(actor string, res, prod replay.Resources) {
	if _, ok := f.resources[actor]; !ok {
		f.resources[actor] = replay.Resources{}
		f.production[actor] = replay.Resources{}
		f.tr[actor] = replay.StartTR
	}
	for kind, d := range res {
		if kind == replay.TR {
			f.tr[actor] = replay.ClampTR(f.tr[actor] + d)
			continue
		}
		f.resources[actor][kind] = replay.ClampResource(kind, f.resources[actor][kind]+d)
	}
	for kind, d := range prod {
		f.production[actor][kind] = replay.ClampProduction(kind, f.production[actor][kind]+d)
	}
}

// applySnapshots overwrites folded values with the absolute counter values
// the gamelogs report for this move.
func (f *trackerFold) applySnapshots(doc *Document, move int, updates []CounterUpdate) {
	for _, u := range updates {
		if param, ok := parameterForToken(u.TokenName); ok {
			f.applyParameterSnapshot(move, param, u.Value)
			continue
		}
		kind, production, ok := resolveCounter(doc, u)
		if !ok || u.PlayerID == "" {
			continue
		}
		if _, known := f.resources[u.PlayerID]; !known {
			continue
		}
		switch {
		case kind == replay.TR:
			v := replay.ClampTR(u.Value)
			if cur := f.tr[u.PlayerID]; cur != v {
				f.note(move, u.PlayerID, "TR", cur, v)
			}
			f.tr[u.PlayerID] = v
		case production:
			v := replay.ClampProduction(kind, u.Value)
			if cur := f.production[u.PlayerID][kind]; cur != v {
				f.note(move, u.PlayerID, string(kind)+" production", cur, v)
			}
			f.production[u.PlayerID][kind] = v
		default:
			v := replay.ClampResource(kind, u.Value)
			if cur := f.resources[u.PlayerID][kind]; cur != v {
				f.note(move, u.PlayerID, string(kind), cur, v)
			}
			f.resources[u.PlayerID][kind] = v
		}
	}
}

// applyParameterSnapshot sets a global parameter from a tracker counter.
// Global parameters never decrease; a snapshot below the folded value is
// recorded and ignored.
func (f *trackerFold) applyParameterSnapshot(move int, param string, value int) {
	target := map[string]*int{
		"temperature": &f.params.Temperature,
		"oxygen":      &f.params.Oxygen,
		"oceans":      &f.params.Oceans,
	}[param]
	if target == nil {
		return
	}
	if value < *target {
		f.notes = append(f.notes,
			fmt.Sprintf("move %d: %s snapshot %d below current %d, kept current", move, param, value, *target))
		return
	}
	*target = value
}

func (f *trackerFold) note(move int, playerID, what string, inferred, snapshot int) {
	f.notes = append(f.notes,
		fmt.Sprintf("move %d: player %s %s inferred %d, snapshot %d, snapshot kept",
			move, playerID, what, inferred, snapshot))
}

// parameterForToken maps the global tracker tokens onto parameter names.
func parameterForToken(token string) (string, bool) {
	switch token {
	case "tracker_t":
		return "temperature", true
	case "tracker_o":
		return "oxygen", true
	case "tracker_w":
		return "oceans", true
	}
	return "", false
}

// resolveCounter turns a counter update into a resource kind, first through
// the page's tracker dictionary, then through the counter id itself.
func resolveCounter(doc *Document, u CounterUpdate) (replay.Resource, bool, bool) {
	if name, ok := doc.TrackerNames[u.CounterName]; ok {
		if kind, production, known := replay.ResourceByName(name); known {
			return kind, production, true
		}
	}
	for _, id := range []string{u.CounterName, u.TokenName} {
		if code, ok := strings.CutPrefix(id, "tracker_"); ok {
			code = trackerColorSuffixRe.ReplaceAllString(code, "")
			if code == "tr" {
				return replay.TR, false, true
			}
			if kind, production, known := replay.ResourceByCode(code); known {
				return kind, production, true
			}
		}
	}
	return "", false, false
}

func counterUpdatesByMove(doc *Document) map[int][]CounterUpdate {
	out := map[int][]CounterUpdate{}
	if doc.Gamelogs == nil {
		return out
	}
	for _, u := range doc.Gamelogs.CounterUpdates() {
		out[u.MoveNumber] = append(out[u.MoveNumber], u)
	}
	return out
}

// actorForEntry resolves which player made a move: the gamelogs actor when
// present, otherwise a name-with-action-verb scan of the entry text.
func actorForEntry(doc *Document, table *PlayerTable, e LogEntry) string {
	if doc.Gamelogs != nil {
		if id, ok := doc.Gamelogs.ActorForMove(e.MoveNumber); ok {
			if _, known := table.IDToName[id]; known {
				return id
			}
		}
	}
	verbs := []string{"plays", "pays", "gains", "increases", "reduces", "places", "chooses", "passes"}
	for _, line := range e.Lines {
		for name, id := range table.NameToID {
			if !strings.Contains(line.Text, name) {
				continue
			}
			for _, v := range verbs {
				if strings.Contains(line.Text, v) {
					return id
				}
			}
		}
	}
	return ""
}

var (
	gainBeforeRe = regexp.MustCompile(`gains (\d+) <div[^>]*class="token_img tracker_(\w+)"[^>]*title="([^"]*)"`)
	payBeforeRe  = regexp.MustCompile(`pays (\d+) <div[^>]*class="token_img tracker_(\w+)"[^>]*title="([^"]*)"`)
	gainAfterRe  = regexp.MustCompile(`gains <div[^>]*class="token_img tracker_(\w+)"[^>]*title="([^"]*)"[^>]*></div>\s*(\d+)`)
	payAfterRe   = regexp.MustCompile(`pays <div[^>]*class="token_img tracker_(\w+)"[^>]*title="([^"]*)"[^>]*></div>\s*(\d+)`)
	increaseRe   = regexp.MustCompile(`increases <div[^>]*class="token_img tracker_(\w+)"[^>]*title="([^"]*)"[^>]*></div> by (\d+)`)
	reduceRe     = regexp.MustCompile(`reduces <div[^>]*class="token_img tracker_(\w+)"[^>]*title="([^"]*)"[^>]*></div> by (\d+)`)
)

// extractLineDeltas reads the gains/pays/increases/reduces token patterns
// out of an entry's markup and turns them into inferred deltas for the
// acting player. Stocks and production are kept apart.
func extractLineDeltas(e LogEntry) (res, prod replay.Resources) {
	res = replay.Resources{}
	prod = replay.Resources{}
	add := func(code, title string, amount int) {
		kind, production, ok := resolveTokenCode(code, title)
		if !ok {
			return
		}
		if production {
			prod[kind] += amount
		} else {
			res[kind] += amount
		}
	}
	for _, line := range e.Lines {
		for _, m := range gainBeforeRe.FindAllStringSubmatch(line.HTML, -1) {
			n, _ := strconv.Atoi(m[1])
			add(m[2], m[3], n)
		}
		for _, m := range payBeforeRe.FindAllStringSubmatch(line.HTML, -1) {
			n, _ := strconv.Atoi(m[1])
			add(m[2], m[3], -n)
		}
		for _, m := range gainAfterRe.FindAllStringSubmatch(line.HTML, -1) {
			n, _ := strconv.Atoi(m[3])
			add(m[1], m[2], n)
		}
		for _, m := range payAfterRe.FindAllStringSubmatch(line.HTML, -1) {
			n, _ := strconv.Atoi(m[3])
			add(m[1], m[2], -n)
		}
		for _, m := range increaseRe.FindAllStringSubmatch(line.HTML, -1) {
			n, _ := strconv.Atoi(m[3])
			add(m[1], m[2], n)
		}
		for _, m := range reduceRe.FindAllStringSubmatch(line.HTML, -1) {
			n, _ := strconv.Atoi(m[3])
			add(m[1], m[2], -n)
		}
	}
	if len(res) == 0 {
		res = nil
	}
	if len(prod) == 0 {
		prod = nil
	}
	return res, prod
}

// resolveTokenCode maps an inline token code (possibly carrying a player
// color suffix) onto a resource kind.
func resolveTokenCode(code, title string) (replay.Resource, bool, bool) {
	code = trackerColorSuffixRe.ReplaceAllString(code, "")
	if code == "tr" {
		return replay.TR, false, true
	}
	if kind, production, ok := replay.ResourceByCode(code); ok {
		return kind, production, true
	}
	return replay.ResourceByName(title)
}

func paramDiff(before, after replay.ParameterState) map[string]int {
	diff := map[string]int{}
	if d := after.Generation - before.Generation; d != 0 {
		diff["generation"] = d
	}
	if d := after.Temperature - before.Temperature; d != 0 {
		diff["temperature"] = d
	}
	if d := after.Oxygen - before.Oxygen; d != 0 {
		diff["oxygen"] = d
	}
	if d := after.Oceans - before.Oceans; d != 0 {
		diff["oceans"] = d
	}
	if len(diff) == 0 {
		return nil
	}
	return diff
}

func cloneStateMap(m map[string]replay.Resources) map[string]replay.Resources {
	out := make(map[string]replay.Resources, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

func cloneIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
