package parser

import (
	"regexp"
	"strconv"

	"github.com/bgatm/replay-engine/pkg/replay"
)

var (
	scoreEntryStartRe = regexp.MustCompile(`<div[^>]*class="[^"]*score-entry[^"]*"`)
	winpointsStartRe  = regexp.MustCompile(`<div[^>]*class="[^"]*winpoints[^"]*"`)
	newrankStartRe    = regexp.MustCompile(`<div[^>]*class="[^"]*newrank[^"]*"`)
	signedNumberRe    = regexp.MustCompile(`([+-]\d+)`)
	pointsRe          = regexp.MustCompile(`(\d+)\s*pts`)
	numberRe          = regexp.MustCompile(`(\d+)`)
)

// ParseEloData reads a table page's score-entry sections into per-player
// ELO figures keyed by display name. Each entry carries two winpoints and
// two newrank blocks: the arena pair first, the game pair second. Anything
// the page does not expose stays nil.
func ParseEloData(tableHTML string) map[string]*replay.EloData {
	out := map[string]*replay.EloData{}
	for _, entry := range extractDivBlocks(tableHTML, scoreEntryStartRe) {
		name, elo := parseScoreEntry(entry)
		if name == "" || elo == nil {
			continue
		}
		out[normalizeName(name)] = elo
	}
	return out
}

func parseScoreEntry(entry string) (string, *replay.EloData) {
	name := ""
	if m := playerNameSpanRe.FindStringSubmatch(entry); m != nil {
		name = m[1]
	} else if m := playerNameAnchorRe.FindStringSubmatch(entry); m != nil {
		name = m[1]
	}
	if name == "" {
		return "", nil
	}

	winpoints := extractDivBlocks(entry, winpointsStartRe)
	newranks := extractDivBlocks(entry, newrankStartRe)

	elo := &replay.EloData{}
	got := false
	if len(winpoints) >= 1 {
		if v, ok := firstInt(signedNumberRe, stripTags(winpoints[0])); ok {
			elo.ArenaPointsChange = &v
			got = true
		}
	}
	if len(newranks) >= 1 {
		if v, ok := firstInt(pointsRe, stripTags(newranks[0])); ok {
			elo.ArenaPoints = &v
			got = true
		}
	}
	if len(winpoints) >= 2 {
		if v, ok := firstInt(signedNumberRe, stripTags(winpoints[1])); ok {
			elo.GameRankChange = &v
			got = true
		}
	}
	if len(newranks) >= 2 {
		if v, ok := firstInt(numberRe, stripTags(newranks[1])); ok {
			elo.GameRank = &v
			got = true
		}
	}
	if !got {
		return name, nil
	}
	return name, elo
}

var playerNameAnchorRe = regexp.MustCompile(`<a[^>]*class="[^"]*playername[^"]*"[^>]*>([^<]+)</a>`)

// mergeElo attaches table-page ELO figures to the player summaries they
// belong to, matched by normalized display name.
func mergeElo(players map[string]*replay.PlayerSummary, elo map[string]*replay.EloData) {
	for _, p := range players {
		if data, ok := elo[normalizeName(p.PlayerName)]; ok {
			p.Elo = data
		}
	}
}

func firstInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}
