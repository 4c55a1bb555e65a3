package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bgatm/replay-engine/pkg/replay"
)

// classifierRule pairs a trigger with the action type it proves and an
// optional argument extractor run on the matching entry.
type classifierRule struct {
	action  replay.ActionType
	matches func(desc string) bool
	args    func(e LogEntry, desc string) replay.Arguments
}

var (
	playsCardRe   = regexp.MustCompile(`plays card (.+?)(?:\s*\||$)`)
	cardTooltipRe = regexp.MustCompile(`<div[^>]*class="[^"]*card_hl_tt[^"]*"[^>]*>([^<]+)`)
	paysCostRe    = regexp.MustCompile(`pays (\d+)`)
	placesTileRe  = regexp.MustCompile(`places (City|Forest|Ocean) on (.+?)(?:\s*\||$)`)
	milestoneRe   = regexp.MustCompile(`claims milestone (\w+)`)
	awardRe       = regexp.MustCompile(`funds (\w+) award`)
	stdProjectRe  = regexp.MustCompile(`standard project ([A-Za-z][A-Za-z ]*?)(?:\s*\||$)`)
	activatesRe   = regexp.MustCompile(`activates (.+?)(?:\s*\||$)`)
	generationRe  = regexp.MustCompile(`New generation (\d+)`)
)

func contains(sub string) func(string) bool {
	return func(desc string) bool { return strings.Contains(desc, sub) }
}

func containsAny(subs ...string) func(string) bool {
	return func(desc string) bool {
		for _, s := range subs {
			if strings.Contains(desc, s) {
				return true
			}
		}
		return false
	}
}

func containsAll(subs ...string) func(string) bool {
	return func(desc string) bool {
		for _, s := range subs {
			if !strings.Contains(desc, s) {
				return false
			}
		}
		return true
	}
}

// classifierRules is evaluated top to bottom, first match wins. Specific
// triggers sit above generic ones, so a move that both converts heat and
// passes classifies as the conversion, and a card play that also pays and
// gains stays a card play.
var classifierRules = []classifierRule{
	{replay.ActionPlayCard, contains("plays card"), playCardArgs},
	{replay.ActionPlaceTile, containsAny("places City", "places Forest", "places Ocean"), placeTileArgs},
	{replay.ActionStandardProject, contains("standard project"), standardProjectArgs},
	{replay.ActionClaimMilestone, contains("claims milestone"), milestoneArgs},
	{replay.ActionFundAward, containsAll("funds", "award"), awardArgs},
	{replay.ActionConvertHeat, contains("Convert heat into temperature"), nil},
	{replay.ActionActivateCard, contains("activates"), activateArgs},
	{replay.ActionNewGeneration, contains("New generation"), generationArgs},
	{replay.ActionDraftCard, contains("draft"), nil},
	{replay.ActionBuyCard, contains("Buy Card"), nil},
	{replay.ActionPass, contains("passes"), nil},
}

// Classify maps a log entry onto the closed action set and extracts the
// arguments the action carries. Entries no rule claims classify as "other".
func Classify(e LogEntry) (replay.ActionType, replay.Arguments) {
	desc := e.Description()
	for _, r := range classifierRules {
		if r.matches(desc) {
			if r.args != nil {
				return r.action, r.args(e, desc)
			}
			return r.action, replay.Arguments{}
		}
	}
	return replay.ActionOther, replay.Arguments{}
}

func playCardArgs(e LogEntry, desc string) replay.Arguments {
	args := replay.Arguments{}
	for _, line := range e.Lines {
		if !strings.Contains(line.Text, "plays card") {
			continue
		}
		if m := cardTooltipRe.FindStringSubmatch(line.HTML); m != nil {
			args.CardName = strings.TrimSpace(m[1])
		} else if m := playsCardRe.FindStringSubmatch(line.Text); m != nil {
			args.CardName = strings.TrimSpace(m[1])
		}
		break
	}
	for _, line := range e.Lines {
		if strings.Contains(line.Text, "pays") && strings.Contains(line.Text, "M€") {
			if m := paysCostRe.FindStringSubmatch(line.Text); m != nil {
				cost, _ := strconv.Atoi(m[1])
				args.CardCost = &cost
				break
			}
		}
	}
	return args
}

func placeTileArgs(e LogEntry, desc string) replay.Arguments {
	for _, line := range e.Lines {
		if m := placesTileRe.FindStringSubmatch(line.Text); m != nil {
			return replay.Arguments{TileType: m[1], TileLocation: strings.TrimSpace(m[2])}
		}
	}
	return replay.Arguments{}
}

func standardProjectArgs(e LogEntry, desc string) replay.Arguments {
	if m := stdProjectRe.FindStringSubmatch(desc); m != nil {
		return replay.Arguments{Project: strings.TrimSpace(m[1])}
	}
	return replay.Arguments{}
}

func milestoneArgs(e LogEntry, desc string) replay.Arguments {
	if m := milestoneRe.FindStringSubmatch(desc); m != nil {
		return replay.Arguments{Milestone: m[1]}
	}
	return replay.Arguments{}
}

func awardArgs(e LogEntry, desc string) replay.Arguments {
	if m := awardRe.FindStringSubmatch(desc); m != nil {
		return replay.Arguments{Award: m[1]}
	}
	return replay.Arguments{}
}

func activateArgs(e LogEntry, desc string) replay.Arguments {
	if m := activatesRe.FindStringSubmatch(desc); m != nil {
		return replay.Arguments{CardName: strings.TrimSpace(m[1])}
	}
	return replay.Arguments{}
}

func generationArgs(e LogEntry, desc string) replay.Arguments {
	if m := generationRe.FindStringSubmatch(desc); m != nil {
		gen, _ := strconv.Atoi(m[1])
		return replay.Arguments{Generation: gen}
	}
	return replay.Arguments{}
}
