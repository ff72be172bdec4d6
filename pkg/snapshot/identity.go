package snapshot

import (
	"math"
	"strings"
)

// Key is the composite identity of a listing across snapshots:
// (shop, url, length, condition). It is a value type so it can be used
// directly as a map key; equality covers all four logical fields.
//
// Length is rounded to the nearest whole centimeter. A missing or
// unparseable length still yields a valid key with HasLength unset; two
// rows without a length for the same shop/url/condition therefore collide
// into one identity. That matches how the catalog behaves and is kept.
type Key struct {
	Shop      string
	URL       string
	LengthCM  int
	HasLength bool
	Condition string
}

// KeyFor resolves a row to its identity key. It never fails: bad length
// input degrades to the unknown-length form of the key.
func KeyFor(r Row) Key {
	k := Key{
		Shop:      strings.TrimSpace(r.Shop),
		URL:       strings.TrimSpace(r.URL),
		Condition: NormalizeCondition(r.Condition),
	}
	if r.LengthCM != nil {
		k.LengthCM = int(math.Round(*r.LengthCM))
		k.HasLength = true
	}
	return k
}

// NormalizeCondition trims the condition and defaults blank input to "new".
func NormalizeCondition(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "new"
	}
	return s
}
