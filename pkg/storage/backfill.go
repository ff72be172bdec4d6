package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gkhutsishvili/skitrack/internal/utils"
	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
)

// BackfillOrigPrices fills orig_price for listings where it is still
// NULL, from historical snapshot rows. Rows are scanned in the order
// given (oldest export first) and the first candidate per listing wins.
// All updates commit in one transaction and every UPDATE is additionally
// guarded by "orig_price IS NULL", so an already-filled value is never
// overwritten. Identities with no catalog listing are ignored: backfill
// never creates rows.
//
// Returns the number of listings actually updated.
func (d *DB) BackfillOrigPrices(ctx context.Context, rows []snapshot.Row) (int64, error) {
	index, err := d.loadSkiIndex(ctx)
	if err != nil {
		return 0, err
	}
	utils.Log.Infof("backfill: %d listings in catalog index", len(index))

	var order []int64
	prices := map[int64]float64{}
	for _, row := range rows {
		if strings.TrimSpace(row.Shop) == "" || strings.TrimSpace(row.URL) == "" || row.OrigPrice == nil {
			continue
		}
		entry, ok := index[snapshot.KeyFor(row)]
		if !ok {
			// Listing never imported; backfill is additive only.
			continue
		}
		if entry.hasOrig {
			continue
		}
		if _, scheduled := prices[entry.id]; scheduled {
			continue
		}
		prices[entry.id] = *row.OrigPrice
		order = append(order, entry.id)
	}

	if len(order) == 0 {
		utils.Log.Info("backfill: nothing to fill")
		return 0, nil
	}
	utils.Log.Infof("backfill: %d candidate listings", len(order))

	var updated int64
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range order {
			res, err := tx.ExecContext(ctx,
				"UPDATE skis SET orig_price = ? WHERE id = ? AND orig_price IS NULL",
				prices[id], id)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			updated += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

type skiIndexEntry struct {
	id      int64
	hasOrig bool
}

// loadSkiIndex maps every listing's identity key to its row id and
// whether orig_price is already set.
func (d *DB) loadSkiIndex(ctx context.Context) (map[snapshot.Key]skiIndexEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT s.id, s.orig_price, s.length_cm, s.condition, s.url, sh.code
		 FROM skis s
		 JOIN shops sh ON sh.id = s.shop_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	index := map[snapshot.Key]skiIndexEntry{}
	for rows.Next() {
		var (
			id           int64
			orig, length sql.NullFloat64
			condition    string
			url, code    string
		)
		if err := rows.Scan(&id, &orig, &length, &condition, &url, &code); err != nil {
			return nil, err
		}
		r := snapshot.Row{Shop: code, URL: url, Condition: condition}
		if length.Valid {
			v := length.Float64
			r.LengthCM = &v
		}
		index[snapshot.KeyFor(r)] = skiIndexEntry{id: id, hasOrig: orig.Valid}
	}
	return index, rows.Err()
}
