package scrape

import "testing"

func TestSplitTitle(t *testing.T) {
	cases := []struct {
		title string
		brand string
		model string
	}{
		{"Atomic Redster G9", "Atomic", "Redster G9"},
		{"atomic redster g9", "Atomic", "redster g9"},
		{"Black Crows Camox", "Black Crows", "Camox"},
		{"Völkl Deacon 74", "Volkl", "Deacon 74"},
		{"Stöckli Laser SX", "Stockli", "Laser SX"},
		{"Some Unknown Ski 170", "", "Some Unknown Ski 170"},
		{"", "", ""},
	}
	for _, c := range cases {
		brand, model := SplitTitle(c.title)
		if brand != c.brand || model != c.model {
			t.Errorf("SplitTitle(%q) = (%q, %q), want (%q, %q)", c.title, brand, model, c.brand, c.model)
		}
	}
}
