// Package parser reconstructs archived Terraforming Mars matches from raw
// BGA replay documents. The package is a pure transform: it performs no I/O
// and no network access, and parsing the same document twice produces
// identical output.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoLogEntries marks a document with no recoverable move log.
var ErrNoLogEntries = errors.New("no log entries")

// ExtractionError means the document cannot yield a replay at all. It is the
// only fatal condition in the pipeline; every other defect degrades into
// metadata on the result.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Line is one log line of a move, kept in both raw markup form (token
// patterns live in the markup) and plain text form (classification reads
// text).
type Line struct {
	HTML string
	Text string
}

// LogEntry is one move block from the replay log.
type LogEntry struct {
	MoveNumber int
	Timestamp  string
	Lines      []Line
}

// Description joins the entry's text lines the way downstream matching
// expects them.
func (e LogEntry) Description() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, " | ")
}

// Document is the structured form of one raw match document: the ordered
// move log, the embedded gamelogs JSON, and the ID-to-name dictionaries the
// page markup carries.
type Document struct {
	Entries  []LogEntry
	Gamelogs *Gamelogs

	CardNames      map[string]string
	MilestoneNames map[string]string
	AwardNames     map[string]string
	HexNames       map[string]string
	TrackerNames   map[string]string
	TileToHex      map[string]string

	Warnings []string

	raw string
}

var (
	moveBlockStartRe = regexp.MustCompile(`<div[^>]*class="[^"]*replaylogs_move[^"]*"`)
	moveNumberRe     = regexp.MustCompile(`Move (\d+)`)
	timestampRe      = regexp.MustCompile(`\b(\d{1,2}:\d{2}:\d{2})\b`)
	logLineStartRe   = regexp.MustCompile(`<div[^>]*class="[^"]*gamelogreview[^"]*"`)
	tagRe            = regexp.MustCompile(`<[^>]*>`)
	gamelogsRe       = regexp.MustCompile(`g_gamelogs\s*=\s*`)

	cardNameRe      = regexp.MustCompile(`<div[^>]+id="(card_[^"]+)"[^>]+data-name="([^"]+)"`)
	milestoneNameRe = regexp.MustCompile(`<div[^>]+id="(milestone_\d+)"[^>]+data-name="([^"]+)"`)
	awardNameRe     = regexp.MustCompile(`<div[^>]+id="(award_\d+)"[^>]+data-name="([^"]+)"`)
	hexNameRe       = regexp.MustCompile(`<div[^>]+id="(hex_\d+_\d+)"[^>]+data-name="([^"]+)"`)
	trackerNameRe   = regexp.MustCompile(`id="((?:tracker_|counter_)[^"]+)"[^>]*?(?:data-name|title)="([^"]+)"`)
	trackerIDRe     = regexp.MustCompile(`id="((?:tracker_|counter_)[^"]+)"`)
)

// ExtractDocument parses a raw match document into its structured form. It
// fails only when the document yields no log entries at all; a missing
// gamelogs payload or missing dictionaries degrade into warnings.
func ExtractDocument(raw string) (*Document, error) {
	doc := &Document{
		raw:            raw,
		CardNames:      extractNameDict(raw, cardNameRe),
		MilestoneNames: extractNameDict(raw, milestoneNameRe),
		AwardNames:     extractNameDict(raw, awardNameRe),
		HexNames:       extractNameDict(raw, hexNameRe),
		TrackerNames:   extractTrackerNames(raw),
	}

	doc.Entries = extractLogEntries(raw)
	if len(doc.Entries) == 0 {
		return nil, &ExtractionError{Reason: "document has no replay log", Err: ErrNoLogEntries}
	}

	gamelogs, err := ExtractGamelogs(raw)
	if err != nil {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("gamelogs unavailable: %v", err))
	} else {
		doc.Gamelogs = gamelogs
		doc.TileToHex = gamelogs.tileToHex()
	}
	return doc, nil
}

// extractLogEntries splits the document on replaylogs_move blocks and pulls
// the move number, timestamp and gamelogreview lines out of each. Blocks
// without a parseable move number are dropped.
func extractLogEntries(raw string) []LogEntry {
	starts := moveBlockStartRe.FindAllStringIndex(raw, -1)
	entries := make([]LogEntry, 0, len(starts))
	for i, loc := range starts {
		end := len(raw)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		block := raw[loc[0]:end]

		nm := moveNumberRe.FindStringSubmatch(block)
		if nm == nil {
			continue
		}
		n, err := strconv.Atoi(nm[1])
		if err != nil {
			continue
		}
		entry := LogEntry{MoveNumber: n}
		if tm := timestampRe.FindStringSubmatch(block); tm != nil {
			entry.Timestamp = tm[1]
		}
		for _, inner := range extractDivBlocks(block, logLineStartRe) {
			text := stripTags(inner)
			if text == "" {
				continue
			}
			entry.Lines = append(entry.Lines, Line{HTML: inner, Text: text})
		}
		if len(entry.Lines) == 0 {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// extractDivBlocks returns the inner markup of every div whose opening tag
// matches startRe, using open/close counting so nested divs (token images
// and the like) stay inside their block.
func extractDivBlocks(s string, startRe *regexp.Regexp) []string {
	var blocks []string
	offset := 0
	for {
		loc := startRe.FindStringIndex(s[offset:])
		if loc == nil {
			return blocks
		}
		start := offset + loc[0]
		open := strings.IndexByte(s[start:], '>')
		if open < 0 {
			return blocks
		}
		contentStart := start + open + 1
		if inner, next, ok := scanToMatchingClose(s, contentStart); ok {
			blocks = append(blocks, inner)
			offset = next
		} else {
			offset = contentStart
		}
	}
}

// scanToMatchingClose walks forward from the content start of an open div
// and finds the close tag matching it. Returns the inner content and the
// index just past the close tag.
func scanToMatchingClose(s string, contentStart int) (string, int, bool) {
	depth := 1
	i := contentStart
	for i < len(s) {
		next := strings.Index(s[i:], "<div")
		close := strings.Index(s[i:], "</div>")
		if close < 0 {
			return "", 0, false
		}
		if next >= 0 && next < close {
			depth++
			i += next + 4
			continue
		}
		depth--
		if depth == 0 {
			return s[contentStart : i+close], i + close + len("</div>"), true
		}
		i += close + len("</div>")
	}
	return "", 0, false
}

// stripTags reduces a markup fragment to its visible text with whitespace
// collapsed.
func stripTags(fragment string) string {
	text := tagRe.ReplaceAllString(fragment, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

func extractNameDict(raw string, re *regexp.Regexp) map[string]string {
	out := map[string]string{}
	for _, m := range re.FindAllStringSubmatch(raw, -1) {
		if _, seen := out[m[1]]; !seen {
			out[m[1]] = strings.TrimSpace(m[2])
		}
	}
	return out
}

// trackerBaseNames backstops counters whose markup carries no data-name or
// title attribute. The base id is the counter id with its trailing player
// color code removed.
var trackerBaseNames = map[string]string{
	"tracker_m":  "MC",
	"tracker_pm": "MC Production",
	"tracker_s":  "Steel",
	"tracker_ps": "Steel Production",
	"tracker_u":  "Titanium",
	"tracker_pu": "Titanium Production",
	"tracker_p":  "Plant",
	"tracker_pp": "Plant Production",
	"tracker_e":  "Energy",
	"tracker_pe": "Energy Production",
	"tracker_h":  "Heat",
	"tracker_ph": "Heat Production",
}

var trackerColorSuffixRe = regexp.MustCompile(`(?i)_[a-f0-9]{6}$`)

func extractTrackerNames(raw string) map[string]string {
	out := extractNameDict(raw, trackerNameRe)
	for _, m := range trackerIDRe.FindAllStringSubmatch(raw, -1) {
		id := m[1]
		if _, seen := out[id]; seen {
			continue
		}
		base := trackerColorSuffixRe.ReplaceAllString(id, "")
		if name, ok := trackerBaseNames[base]; ok {
			out[id] = name
		}
	}
	return out
}

// ExtractGamelogs pulls the g_gamelogs JSON out of the document with
// string-aware brace counting. A semicolon at depth zero before the object
// closes means the assignment is truncated.
func ExtractGamelogs(raw string) (*Gamelogs, error) {
	loc := gamelogsRe.FindStringIndex(raw)
	if loc == nil {
		return nil, errors.New("g_gamelogs assignment not found")
	}
	payload, ok := balancedJSON(raw[loc[1]:])
	if !ok {
		return nil, errors.New("g_gamelogs object is truncated")
	}
	var g Gamelogs
	if err := json.Unmarshal([]byte(payload), &g); err != nil {
		return nil, fmt.Errorf("decoding g_gamelogs: %w", err)
	}
	return &g, nil
}

// balancedJSON returns the leading complete JSON object of s, honoring
// string literals and escapes while counting braces.
func balancedJSON(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[:i+1], true
				}
			}
		case ';':
			if !inString && depth == 0 {
				return "", false
			}
		}
	}
	return "", false
}
