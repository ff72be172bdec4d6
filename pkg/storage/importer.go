package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"

	"github.com/gkhutsishvili/skitrack/internal/utils"
	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
)

// ImportSnapshot ingests one snapshot into the catalog. The whole
// snapshot is one transaction: the run record, every upsert, every price
// observation and the processed-file marker commit together or not at
// all. A source already present in the processed_files ledger returns
// ErrAlreadyProcessed without touching anything, which makes re-running
// an import a no-op.
//
// Rows missing a shop code, URL or price are skipped and counted, never
// fatal. Listings whose inclusion state is excluded are frozen: no field
// updates and no price observation for them.
func (d *DB) ImportSnapshot(ctx context.Context, sourceName string, rows []snapshot.Row) (ImportStats, error) {
	stats := ImportStats{Total: len(rows)}

	var processed int
	err := d.sql.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM processed_files WHERE file_name = ?", sourceName).Scan(&processed)
	if err != nil {
		return stats, err
	}
	if processed > 0 {
		return stats, fmt.Errorf("%s: %w", sourceName, ErrAlreadyProcessed)
	}

	minLen, maxLen := lengthBounds(rows)
	now := nowISO()

	err = d.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO scrape_runs (run_at, source_file, min_length_cm, max_length_cm, notes)
			 VALUES (?, ?, ?, ?, ?)`,
			now, sourceName, nullFloat(minLen), nullFloat(maxLen), "auto-import")
		if err != nil {
			return fmt.Errorf("create scrape run: %w", err)
		}
		runID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		stats.RunID = runID

		shopIDs := map[string]int64{}
		for i, row := range rows {
			shopCode := strings.TrimSpace(row.Shop)
			url := strings.TrimSpace(row.URL)
			if shopCode == "" || url == "" || row.Price == nil {
				stats.Skipped++
				utils.Log.Debugf("%s: row %d skipped (missing shop, url or price)", sourceName, i+1)
				continue
			}

			shopID, ok := shopIDs[shopCode]
			if !ok {
				shopID, err = getOrCreateShop(ctx, tx, shopCode)
				if err != nil {
					return err
				}
				shopIDs[shopCode] = shopID
			}

			skiID, frozen, created, err := upsertSki(ctx, tx, shopID, row, now)
			if err != nil {
				return err
			}
			if frozen {
				stats.Frozen++
				continue
			}
			if created {
				stats.Created++
			}

			// Duplicate (ski, run) pairs are a silent no-op.
			_, err = tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO price_history (ski_id, run_id, price, created_at)
				 VALUES (?, ?, ?, ?)`,
				skiID, runID, *row.Price, now)
			if err != nil {
				return fmt.Errorf("insert price observation: %w", err)
			}
			stats.Imported++
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO processed_files (file_name, run_id, processed_at) VALUES (?, ?, ?)",
			sourceName, runID, now)
		if err != nil {
			return fmt.Errorf("mark source processed: %w", err)
		}
		return nil
	})
	if err != nil {
		return ImportStats{Total: len(rows)}, err
	}
	return stats, nil
}

// ProcessedFiles returns the set of source names already imported.
func (d *DB) ProcessedFiles(ctx context.Context) (map[string]bool, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT file_name FROM processed_files")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}

func getOrCreateShop(ctx context.Context, tx *sql.Tx, code string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM shops WHERE code = ?", code).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO shops (code, name, base_url) VALUES (?, ?, ?)",
		code, code, guessBaseURL(code))
	if err != nil {
		return 0, fmt.Errorf("create shop %s: %w", code, err)
	}
	return res.LastInsertId()
}

// guessBaseURL derives a base URL for an auto-created shop whose code
// looks like a registrable domain ("xtreme.ge" -> "https://xtreme.ge").
func guessBaseURL(code string) interface{} {
	if !strings.Contains(code, ".") {
		return nil
	}
	if _, err := publicsuffix.Domain(code); err != nil {
		return nil
	}
	return "https://" + code
}

// upsertSki creates or refreshes the listing matching the row's identity.
// Returns (id, frozen, created). Frozen listings are left untouched.
func upsertSki(ctx context.Context, tx *sql.Tx, shopID int64, row snapshot.Row, now string) (int64, bool, bool, error) {
	url := strings.TrimSpace(row.URL)
	condition := snapshot.NormalizeCondition(row.Condition)
	length := nullFloat(row.LengthCM)

	var (
		id        int64
		origPrice sql.NullFloat64
		inclusion string
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, orig_price, inclusion_state FROM skis
		 WHERE shop_id = ?
		   AND url = ?
		   AND ((length_cm IS NULL AND ? IS NULL) OR length_cm = ?)
		   AND condition = ?`,
		shopID, url, length, length, condition).Scan(&id, &origPrice, &inclusion)

	switch {
	case err == sql.ErrNoRows:
		res, err := tx.ExecContext(ctx,
			`INSERT INTO skis (shop_id, brand, model, length_cm, condition, url,
			                   orig_price, first_seen_at, last_seen_at, is_active, inclusion_state)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
			shopID, strings.TrimSpace(row.Brand), strings.TrimSpace(row.Model), length, condition,
			url, nullFloat(row.OrigPrice), now, now, string(InclusionPending))
		if err != nil {
			return 0, false, false, fmt.Errorf("create listing: %w", err)
		}
		id, err := res.LastInsertId()
		return id, false, true, err

	case err != nil:
		return 0, false, false, err

	case inclusion == string(InclusionExcluded):
		return id, true, false, nil
	}

	// orig_price is write-once: set it only while still NULL.
	if !origPrice.Valid && row.OrigPrice != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE skis SET brand = ?, model = ?, orig_price = ?, last_seen_at = ?, is_active = 1 WHERE id = ?`,
			strings.TrimSpace(row.Brand), strings.TrimSpace(row.Model), *row.OrigPrice, now, id)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE skis SET brand = ?, model = ?, last_seen_at = ?, is_active = 1 WHERE id = ?`,
			strings.TrimSpace(row.Brand), strings.TrimSpace(row.Model), now, id)
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("update listing: %w", err)
	}
	return id, false, false, nil
}

func lengthBounds(rows []snapshot.Row) (min, max *float64) {
	for _, r := range rows {
		if r.LengthCM == nil {
			continue
		}
		l := *r.LengthCM
		if min == nil || l < *min {
			v := l
			min = &v
		}
		if max == nil || l > *max {
			v := l
			max = &v
		}
	}
	return min, max
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
