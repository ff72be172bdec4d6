package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "skitrack_test.sqlite"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func fp(f float64) *float64 { return &f }

func testRow(shop, model string, length float64, condition string, price float64) snapshot.Row {
	return snapshot.Row{
		Shop:      shop,
		Brand:     "HEAD",
		Model:     model,
		Condition: condition,
		LengthCM:  fp(length),
		Price:     fp(price),
		URL:       "https://" + shop + "/" + model,
	}
}

func count(t *testing.T, db *DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := db.sql.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count query %q: %v", query, err)
	}
	return n
}

func TestOpenCreatesSchema(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{
		"shops", "skis", "scrape_runs", "price_history", "processed_files",
		"changes_new_arrival", "changes_sold_out", "changes_price_change",
	} {
		if n := count(t, db, "SELECT COUNT(*) FROM "+table); n != 0 {
			t.Fatalf("table %s: expected empty, got %d", table, n)
		}
	}
	// Views exist and are queryable.
	if n := count(t, db, "SELECT COUNT(*) FROM v_latest_prices"); n != 0 {
		t.Fatalf("v_latest_prices: expected empty, got %d", n)
	}
}

func TestSetInclusionValidation(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.SetInclusion(context.Background(), "s", "%", Inclusion("bogus")); err == nil {
		t.Fatal("expected error for invalid inclusion state")
	}
}
