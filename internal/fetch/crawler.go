package fetch

import (
	"regexp"

	"github.com/bits-and-blooms/bloom/v3"
)

// tableLinkRe matches table ids in game-history markup, both in links
// ("?table=123456789") and in bare "#123456789" references.
var tableLinkRe = regexp.MustCompile(`(?:table=|#)(\d{9})`)

// Frontier tracks which table ids a crawl has already seen. It is a bloom
// filter, so a hit may very rarely be a false positive; a crawl skipping the
// odd table is acceptable, re-fetching thousands is not.
type Frontier struct {
	seen *bloom.BloomFilter
}

// NewFrontier sizes the filter for the expected number of tables.
func NewFrontier(expected uint) *Frontier {
	return &Frontier{seen: bloom.NewWithEstimates(expected, 0.001)}
}

// Visit marks a table id as seen and reports whether it was new.
func (f *Frontier) Visit(tableID string) bool {
	if f.seen.TestString(tableID) {
		return false
	}
	f.seen.AddString(tableID)
	return true
}

// ExtractTableIDs pulls the unseen table ids out of one game-history page,
// in document order, marking each as visited.
func ExtractTableIDs(page []byte, frontier *Frontier) []string {
	var ids []string
	for _, m := range tableLinkRe.FindAllSubmatch(page, -1) {
		id := string(m[1])
		if frontier.Visit(id) {
			ids = append(ids, id)
		}
	}
	return ids
}
