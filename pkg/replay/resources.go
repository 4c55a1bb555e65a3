package replay

import "strings"

// Resource identifies one of the six player resource kinds. The same kinds
// name production rates. TR is tracked separately on the score side but the
// log exposes it through the same counter mechanism, so it gets a kind too.
type Resource string

const (
	MegaCredits Resource = "M€"
	Steel       Resource = "Steel"
	Titanium    Resource = "Titanium"
	Plant       Resource = "Plant"
	Energy      Resource = "Energy"
	Heat        Resource = "Heat"
	TR          Resource = "TR"
)

// ResourceKinds lists the player resource kinds in display order.
var ResourceKinds = []Resource{MegaCredits, Steel, Titanium, Plant, Energy, Heat}

// trackerCodes maps the single-letter counter codes the log uses to resource
// kinds. Production counters use the same letters prefixed with "p".
var trackerCodes = map[string]Resource{
	"m": MegaCredits,
	"s": Steel,
	"u": Titanium,
	"p": Plant,
	"e": Energy,
	"h": Heat,
}

// ResourceByCode resolves a tracker counter code like "m" or "pm" into a
// resource kind and whether it names a production rate.
func ResourceByCode(code string) (Resource, bool, bool) {
	production := false
	if len(code) == 2 && code[0] == 'p' {
		production = true
		code = code[1:]
	}
	r, ok := trackerCodes[code]
	return r, production, ok
}

// displayAliases covers the names the page markup uses for counters, which
// do not always match our canonical kind names.
var displayAliases = map[string]Resource{
	"m€":          MegaCredits,
	"mc":          MegaCredits,
	"megacredit":  MegaCredits,
	"megacredits": MegaCredits,
	"steel":       Steel,
	"titanium":    Titanium,
	"plant":       Plant,
	"plants":      Plant,
	"energy":      Energy,
	"heat":        Heat,
	"tr":          TR,
}

// ResourceByName resolves a display name like "MC Production" or "Plants"
// into a resource kind and whether it names a production rate.
func ResourceByName(name string) (Resource, bool, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	production := false
	if cut, found := strings.CutSuffix(n, " production"); found {
		production = true
		n = cut
	}
	r, ok := displayAliases[n]
	return r, production, ok
}

// ClampResource applies the floor rules for a stock value: M€ may go
// negative without limit, everything else floors at zero.
func ClampResource(kind Resource, v int) int {
	if kind == MegaCredits {
		return v
	}
	if v < 0 {
		return 0
	}
	return v
}

// ClampProduction applies the floor rules for a production rate: M€
// production floors at -5, everything else at zero.
func ClampProduction(kind Resource, v int) int {
	if kind == MegaCredits {
		if v < -5 {
			return -5
		}
		return v
	}
	if v < 0 {
		return 0
	}
	return v
}

// ClampTR keeps a terraform rating inside its legal 20..63 band.
func ClampTR(v int) int {
	if v < 20 {
		return 20
	}
	if v > 63 {
		return 63
	}
	return v
}
