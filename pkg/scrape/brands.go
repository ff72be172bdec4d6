package scrape

import (
	"strings"
	"sync"
)

// Ski brands seen across the tracked shops. Lookup is case-insensitive
// and covers the common spelling variants.
var knownBrands = [][]string{
	{"Armada"},
	{"Atomic"},
	{"Black Crows", "Blackcrows"},
	{"Blizzard"},
	{"Dynafit"},
	{"Dynastar"},
	{"Elan"},
	{"Faction"},
	{"Fischer"},
	{"HEAD"},
	{"K2"},
	{"Kastle", "Kästle"},
	{"Line"},
	{"Majesty"},
	{"Movement"},
	{"Nordica"},
	{"Rossignol"},
	{"Salomon"},
	{"Scott"},
	{"Stockli", "Stöckli"},
	{"Volkl", "Völkl"},
	{"Zag"},
}

var (
	brandOnce  sync.Once
	brandIndex map[string]string
)

// brandLookup returns the normalized-token -> canonical-brand index,
// built exactly once per process.
func brandLookup() map[string]string {
	brandOnce.Do(func() {
		brandIndex = make(map[string]string, len(knownBrands)*2)
		for _, variants := range knownBrands {
			canonical := variants[0]
			for _, v := range variants {
				brandIndex[strings.ToLower(v)] = canonical
			}
		}
	})
	return brandIndex
}

// detectBrand scans free-form text (a page <title>, typically) for the
// first known brand and returns its canonical name, or "".
func detectBrand(text string) string {
	idx := brandLookup()
	tokens := strings.Fields(text)
	for i, tok := range tokens {
		tok = strings.Trim(tok, ",.|-()")
		if i+1 < len(tokens) {
			next := strings.Trim(tokens[i+1], ",.|-()")
			if canonical, ok := idx[strings.ToLower(tok+" "+next)]; ok {
				return canonical
			}
		}
		if canonical, ok := idx[strings.ToLower(tok)]; ok {
			return canonical
		}
	}
	return ""
}

// SplitTitle splits a product title into (brand, model) using the known
// brand index. Two-word brands are tried before single-word ones. When
// no brand matches, the whole title is the model.
func SplitTitle(title string) (string, string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ""
	}
	idx := brandLookup()
	tokens := strings.Fields(title)

	if len(tokens) >= 2 {
		two := strings.ToLower(tokens[0] + " " + tokens[1])
		if canonical, ok := idx[two]; ok {
			return canonical, strings.Join(tokens[2:], " ")
		}
	}
	if canonical, ok := idx[strings.ToLower(tokens[0])]; ok {
		return canonical, strings.Join(tokens[1:], " ")
	}
	return "", title
}
