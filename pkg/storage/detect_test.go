package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
)

func TestDetectChangesNotEnoughRuns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.DetectChanges(ctx, 0, 0); !errors.Is(err, ErrNotEnoughRuns) {
		t.Fatalf("expected ErrNotEnoughRuns, got %v", err)
	}

	if _, err := db.ImportSnapshot(ctx, "a.csv", []snapshot.Row{testRow("s", "m", 170, "new", 100)}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.DetectChanges(ctx, 0, 0); !errors.Is(err, ErrNotEnoughRuns) {
		t.Fatalf("expected ErrNotEnoughRuns with one run, got %v", err)
	}
}

func TestDetectChanges(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	oldRows := []snapshot.Row{
		testRow("xtreme.ge", "modelA", 170, "new", 500),
		testRow("xtreme.ge", "modelC", 180, "used", 300),
		testRow("xtreme.ge", "same", 165, "new", 200),
	}
	newRows := []snapshot.Row{
		testRow("xtreme.ge", "modelB", 165, "new", 450),
		testRow("xtreme.ge", "modelC", 180, "used", 250),
		testRow("xtreme.ge", "same", 165, "new", 200),
	}
	if _, err := db.ImportSnapshot(ctx, "a.csv", oldRows); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ImportSnapshot(ctx, "b.csv", newRows); err != nil {
		t.Fatal(err)
	}

	records, err := db.DetectChanges(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d: %+v", len(records), records)
	}

	byModel := map[string]snapshot.DiffRecord{}
	for _, r := range records {
		byModel[r.Row.Model] = r
	}
	if byModel["modelA"].Status != snapshot.StatusSoldOut {
		t.Fatalf("modelA: %+v", byModel["modelA"])
	}
	if byModel["modelB"].Status != snapshot.StatusNewArrival {
		t.Fatalf("modelB: %+v", byModel["modelB"])
	}
	pc := byModel["modelC"]
	if pc.Status != snapshot.StatusPriceChange || *pc.OldPrice != 300 || *pc.NewPrice != 250 {
		t.Fatalf("modelC: %+v", pc)
	}

	if n := count(t, db, "SELECT COUNT(*) FROM changes_sold_out"); n != 1 {
		t.Fatalf("changes_sold_out: %d", n)
	}
	if n := count(t, db, "SELECT COUNT(*) FROM changes_new_arrival"); n != 1 {
		t.Fatalf("changes_new_arrival: %d", n)
	}
	if n := count(t, db, "SELECT COUNT(*) FROM changes_price_change"); n != 1 {
		t.Fatalf("changes_price_change: %d", n)
	}

	var oldPrice, newPrice float64
	if err := db.sql.QueryRow("SELECT old_price, new_price FROM changes_price_change").Scan(&oldPrice, &newPrice); err != nil {
		t.Fatal(err)
	}
	if oldPrice != 300 || newPrice != 250 {
		t.Fatalf("persisted prices wrong: %v -> %v", oldPrice, newPrice)
	}
}

func TestDetectChangesIsRerunnable(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ImportSnapshot(ctx, "a.csv", []snapshot.Row{testRow("s", "m", 170, "new", 100)}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ImportSnapshot(ctx, "b.csv", []snapshot.Row{testRow("s", "m", 170, "new", 90)}); err != nil {
		t.Fatal(err)
	}

	if _, err := db.DetectChanges(ctx, 0, 0); err != nil {
		t.Fatal(err)
	}
	first := count(t, db, "SELECT COUNT(*) FROM changes_price_change")

	if _, err := db.DetectChanges(ctx, 0, 0); err != nil {
		t.Fatal(err)
	}
	second := count(t, db, "SELECT COUNT(*) FROM changes_price_change")
	if first != 1 || second != 1 {
		t.Fatalf("detector not re-runnable: first=%d second=%d", first, second)
	}
}

func TestDetectChangesExplicitRuns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s1, err := db.ImportSnapshot(ctx, "a.csv", []snapshot.Row{testRow("s", "m", 170, "new", 100)})
	if err != nil {
		t.Fatal(err)
	}
	s2, err := db.ImportSnapshot(ctx, "b.csv", []snapshot.Row{testRow("s", "m", 170, "new", 90)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.ImportSnapshot(ctx, "c.csv", []snapshot.Row{testRow("s", "m", 170, "new", 80)}); err != nil {
		t.Fatal(err)
	}

	// Compare the two oldest runs explicitly, not the default pair.
	records, err := db.DetectChanges(ctx, s1.RunID, s2.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || *records[0].NewPrice != 90 {
		t.Fatalf("explicit run pair not honored: %+v", records)
	}
}
