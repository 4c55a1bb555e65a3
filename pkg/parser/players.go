package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PlayerTable is the bidirectional player identity mapping for one match.
// Mapping never fails: names the document cannot resolve to numeric ids are
// kept under the name itself so every log line stays attributable.
type PlayerTable struct {
	NameToID map[string]string
	IDToName map[string]string
	// IDs in a stable order: document order of first appearance, ids
	// without a name appearance sorted last.
	Order    []string
	Warnings []string
}

var (
	playerNameSpanRe = regexp.MustCompile(`<span[^>]*class="[^"]*playername[^"]*"[^>]*>([^<]+)</span>`)
	corporationRe    = regexp.MustCompile(`([A-Za-z][A-Za-z0-9\s_]+?) chooses corporation ([A-Za-z][A-Za-z0-9\s]+?)(?:\s*\||$)`)
)

// normalizeName folds a display name to NFC with trimmed whitespace so names
// from the log text and the embedded tables compare equal.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// MapPlayers builds the name/id table for a document. validIDs, when known
// (from the authoritative scoring data), restricts which ids are accepted;
// pass nil to accept any.
//
// Resolution order: the gamelogs name/id pairs first, then a proximity
// search in the page markup for names still unmapped, then the name itself
// as its own id, with a warning.
func MapPlayers(doc *Document, validIDs map[string]bool) *PlayerTable {
	t := &PlayerTable{
		NameToID: map[string]string{},
		IDToName: map[string]string{},
	}

	names := displayNames(doc)

	if doc.Gamelogs != nil {
		for name, id := range doc.Gamelogs.PlayerMapping(validIDs) {
			t.add(normalizeName(name), id)
		}
	}

	for _, name := range names {
		if _, ok := t.NameToID[name]; ok {
			continue
		}
		if id, ok := proximityID(doc.raw, name, validIDs); ok {
			t.add(name, id)
			continue
		}
		t.add(name, name)
		t.Warnings = append(t.Warnings, fmt.Sprintf("player %q has no numeric id, using name as id", name))
	}

	// Ids known to the scoring data but never named anywhere still need
	// table entries so score rows are not orphaned.
	var orphans []string
	for id := range validIDs {
		if _, ok := t.IDToName[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		t.add("Player_"+id, id)
		t.Warnings = append(t.Warnings, fmt.Sprintf("player id %s appears in scoring data but never in the log", id))
	}

	return t
}

func (t *PlayerTable) add(name, id string) {
	if _, dup := t.IDToName[id]; dup {
		return
	}
	t.NameToID[name] = id
	t.IDToName[id] = name
	t.Order = append(t.Order, id)
}

// NameFor resolves an id, falling back to the id itself.
func (t *PlayerTable) NameFor(id string) string {
	if name, ok := t.IDToName[id]; ok {
		return name
	}
	return id
}

// IDFor resolves a display name, normalizing before lookup.
func (t *PlayerTable) IDFor(name string) (string, bool) {
	id, ok := t.NameToID[normalizeName(name)]
	return id, ok
}

// displayNames collects player display names from the page markup in order
// of first appearance.
func displayNames(doc *Document) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range playerNameSpanRe.FindAllStringSubmatch(doc.raw, -1) {
		name := normalizeName(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// proximityID hunts the markup for a numeric id within close range of a
// player name. Ids are at least 8 digits; a validIDs set further restricts
// acceptance.
func proximityID(raw, name string, validIDs map[string]bool) (string, bool) {
	quoted := regexp.QuoteMeta(name)
	patterns := []string{
		quoted + `[\s\S]{0,100}?(\d{8,})`,
		`(\d{8,})[\s\S]{0,100}?` + quoted,
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		for _, m := range re.FindAllStringSubmatch(raw, -1) {
			id := m[1]
			if validIDs == nil || validIDs[id] {
				return id, true
			}
		}
	}
	return "", false
}

// Corporations extracts the corporation each player chose, keyed by player
// id via the table. Players without a choice line are simply absent.
func Corporations(doc *Document, table *PlayerTable) map[string]string {
	out := map[string]string{}
	for _, e := range doc.Entries {
		for _, line := range e.Lines {
			m := corporationRe.FindStringSubmatch(line.Text)
			if m == nil {
				continue
			}
			name := normalizeName(m[1])
			corp := strings.TrimSpace(m[2])
			id, ok := table.IDFor(name)
			if !ok {
				// The log sometimes prefixes the name with other text;
				// retry with the longest known-name suffix.
				id, ok = suffixMatch(table, name)
			}
			if ok {
				if _, dup := out[id]; !dup {
					out[id] = corp
				}
			}
		}
	}
	return out
}

func suffixMatch(table *PlayerTable, text string) (string, bool) {
	best := ""
	for name := range table.NameToID {
		if strings.HasSuffix(text, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return "", false
	}
	return table.NameToID[best], true
}
