package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gkhutsishvili/skitrack/internal/utils"
	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
)

// DetectChanges classifies the differences between two recorded runs
// using the same algorithm as the file differ, persists them into the
// three change tables and returns the ordered records. Passing zero for
// either run ID selects the two most recent runs by run_at.
//
// Any change rows previously recorded for the new run are cleared first,
// so the detector can be re-run without duplicating side effects.
func (d *DB) DetectChanges(ctx context.Context, oldRunID, newRunID int64) ([]snapshot.DiffRecord, error) {
	if oldRunID == 0 || newRunID == 0 {
		var err error
		oldRunID, newRunID, err = d.lastTwoRuns(ctx)
		if err != nil {
			return nil, err
		}
	}

	oldRows, oldIDs, err := d.runRows(ctx, oldRunID)
	if err != nil {
		return nil, err
	}
	newRows, newIDs, err := d.runRows(ctx, newRunID)
	if err != nil {
		return nil, err
	}

	records := snapshot.Diff(oldRows, newRows)
	utils.Log.Infof("runs %d -> %d: %d changes", oldRunID, newRunID, len(records))

	now := nowISO()
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"changes_new_arrival", "changes_sold_out", "changes_price_change"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", newRunID); err != nil {
				return err
			}
		}

		for _, rec := range records {
			key := snapshot.KeyFor(rec.Row)
			switch rec.Status {
			case snapshot.StatusSoldOut:
				skiID, ok := oldIDs[key]
				if !ok {
					return fmt.Errorf("no listing for sold-out identity %+v", key)
				}
				if _, err := tx.ExecContext(ctx,
					"INSERT OR IGNORE INTO changes_sold_out (run_id, ski_id, created_at) VALUES (?, ?, ?)",
					newRunID, skiID, now); err != nil {
					return err
				}
			case snapshot.StatusNewArrival:
				skiID, ok := newIDs[key]
				if !ok {
					return fmt.Errorf("no listing for new-arrival identity %+v", key)
				}
				if _, err := tx.ExecContext(ctx,
					"INSERT OR IGNORE INTO changes_new_arrival (run_id, ski_id, created_at) VALUES (?, ?, ?)",
					newRunID, skiID, now); err != nil {
					return err
				}
			case snapshot.StatusPriceChange:
				skiID, ok := newIDs[key]
				if !ok {
					return fmt.Errorf("no listing for price-change identity %+v", key)
				}
				if rec.OldPrice == nil || rec.NewPrice == nil {
					// A price observation is NOT NULL in the ledger, so
					// both sides are always present in DB mode.
					return fmt.Errorf("price change without both prices for identity %+v", key)
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT OR IGNORE INTO changes_price_change (run_id, ski_id, old_price, new_price, created_at)
					 VALUES (?, ?, ?, ?, ?)`,
					newRunID, skiID, *rec.OldPrice, *rec.NewPrice, now); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// lastTwoRuns returns (old, new) as the two most recent runs by run_at.
func (d *DB) lastTwoRuns(ctx context.Context) (int64, int64, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id FROM scrape_runs ORDER BY run_at DESC, id DESC LIMIT 2")
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}
	if len(ids) < 2 {
		return 0, 0, ErrNotEnoughRuns
	}
	return ids[1], ids[0], nil
}

// runRows reconstructs the snapshot recorded for one run: each price
// observation joined with its listing and shop. It also returns the
// identity -> listing id index used when persisting change rows.
func (d *DB) runRows(ctx context.Context, runID int64) ([]snapshot.Row, map[snapshot.Key]int64, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT s.id, sh.code, s.brand, s.model, s.length_cm, s.condition, s.url, s.orig_price, ph.price
		 FROM price_history ph
		 JOIN skis s   ON s.id = ph.ski_id
		 JOIN shops sh ON sh.id = s.shop_id
		 WHERE ph.run_id = ?`, runID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var out []snapshot.Row
	ids := map[snapshot.Key]int64{}
	for rows.Next() {
		var (
			skiID        int64
			brand        sql.NullString
			length, orig sql.NullFloat64
			price        float64
			r            snapshot.Row
		)
		if err := rows.Scan(&skiID, &r.Shop, &brand, &r.Model, &length, &r.Condition, &r.URL, &orig, &price); err != nil {
			return nil, nil, err
		}
		r.Brand = brand.String
		if length.Valid {
			v := length.Float64
			r.LengthCM = &v
		}
		if orig.Valid {
			v := orig.Float64
			r.OrigPrice = &v
		}
		r.Price = &price
		out = append(out, r)
		ids[snapshot.KeyFor(r)] = skiID
	}
	return out, ids, rows.Err()
}
