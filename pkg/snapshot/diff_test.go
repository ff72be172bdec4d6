package snapshot

import (
	"math/rand"
	"reflect"
	"testing"
)

func row(shop, model string, length float64, condition string, price float64) Row {
	return Row{
		Shop:      shop,
		Model:     model,
		Condition: condition,
		LengthCM:  floatPtr(length),
		Price:     floatPtr(price),
		URL:       "https://" + shop + "/" + model,
	}
}

func TestDiffSoldOutAndNewArrival(t *testing.T) {
	old := []Row{row("xtreme.ge", "modelA", 170, "new", 500)}
	new := []Row{row("xtreme.ge", "modelB", 165, "new", 450)}

	got := Diff(old, new)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(got), got)
	}
	if got[0].Status != StatusSoldOut || got[0].Row.Model != "modelA" {
		t.Fatalf("expected sold_out modelA first, got %+v", got[0])
	}
	if got[1].Status != StatusNewArrival || got[1].Row.Model != "modelB" {
		t.Fatalf("expected new_arrival modelB, got %+v", got[1])
	}
}

func TestDiffPriceChange(t *testing.T) {
	old := []Row{row("shopX", "modelC", 180, "used", 300)}
	new := []Row{row("shopX", "modelC", 180, "used", 250)}

	got := Diff(old, new)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	d := got[0]
	if d.Status != StatusPriceChange {
		t.Fatalf("expected price_change, got %s", d.Status)
	}
	if d.OldPrice == nil || *d.OldPrice != 300 || d.NewPrice == nil || *d.NewPrice != 250 {
		t.Fatalf("wrong prices: old=%v new=%v", d.OldPrice, d.NewPrice)
	}
	if d.Row.Price == nil || *d.Row.Price != 250 {
		t.Fatalf("descriptive fields must come from the new row, got %+v", d.Row)
	}
}

func TestDiffEqualPriceEmitsNothing(t *testing.T) {
	rows := []Row{row("s", "m", 170, "new", 500)}
	if got := Diff(rows, rows); len(got) != 0 {
		t.Fatalf("equal snapshots must produce no records, got %+v", got)
	}
}

func TestDiffUnparseablePrices(t *testing.T) {
	a := row("s", "m", 170, "new", 0)
	a.Price = nil
	b := a
	// Both prices unknown: no record.
	if got := Diff([]Row{a}, []Row{b}); len(got) != 0 {
		t.Fatalf("two unknown prices compare equal, got %+v", got)
	}
	// Known vs unknown: price change.
	c := row("s", "m", 170, "new", 300)
	got := Diff([]Row{c}, []Row{b})
	if len(got) != 1 || got[0].Status != StatusPriceChange {
		t.Fatalf("known vs unknown price should be a price_change, got %+v", got)
	}
}

// Every identity in the union of old and new must land in exactly one of:
// no record, sold_out, new_arrival, price_change.
func TestDiffPartitionCompleteness(t *testing.T) {
	old := []Row{
		row("a", "m1", 170, "new", 100),
		row("a", "m2", 175, "new", 200),
		row("b", "m3", 180, "used", 300),
	}
	new := []Row{
		row("a", "m1", 170, "new", 100), // unchanged
		row("a", "m2", 175, "new", 250), // price change
		row("c", "m4", 160, "new", 400), // arrival
	}

	got := Diff(old, new)

	seen := map[Key]Status{}
	for _, d := range got {
		k := KeyFor(d.Row)
		if prev, dup := seen[k]; dup {
			t.Fatalf("identity %v classified twice: %s and %s", k, prev, d.Status)
		}
		seen[k] = d.Status
	}

	union := map[Key]bool{}
	for _, r := range append(append([]Row{}, old...), new...) {
		union[KeyFor(r)] = true
	}
	if len(union) != 4 {
		t.Fatalf("expected 4 identities in union, got %d", len(union))
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records (1 sold_out, 1 arrival, 1 change), got %d", len(got))
	}
}

func TestDiffDeterministicOrdering(t *testing.T) {
	old := []Row{
		row("b", "m1", 170, "new", 100),
		row("a", "m9", 150, "new", 100),
		row("a", "m2", 175, "new", 200),
	}
	noLen := Row{Shop: "a", Model: "m2", Condition: "new", Price: floatPtr(10), URL: "https://a/m2x"}
	old = append(old, noLen)

	base := Diff(old, nil)

	for i := 0; i < 10; i++ {
		shuffled := append([]Row{}, old...)
		rand.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := Diff(shuffled, nil)
		if !reflect.DeepEqual(base, got) {
			t.Fatalf("ordering depends on input order:\n%+v\nvs\n%+v", base, got)
		}
	}

	// Unknown length sorts before numeric lengths of the same model.
	if base[0].Row.Shop != "a" || base[0].Row.Model != "m2" || base[0].Row.LengthCM != nil {
		t.Fatalf("expected unknown-length a/m2 first, got %+v", base[0].Row)
	}
}

func TestDiffLastRowWinsOnDuplicateIdentity(t *testing.T) {
	old := []Row{
		row("s", "m", 170, "new", 100),
		row("s", "m", 170, "new", 120),
	}
	new := []Row{row("s", "m", 170, "new", 120)}
	if got := Diff(old, new); len(got) != 0 {
		t.Fatalf("last duplicate should win, got %+v", got)
	}
}
