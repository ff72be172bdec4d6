package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SetInclusion marks listings matching a shop code and URL pattern as
// pending, included or excluded. This is the only path that changes the
// inclusion state; in particular it is the only way a frozen (excluded)
// listing starts receiving updates again.
func (d *DB) SetInclusion(ctx context.Context, shopCode, urlPattern string, state Inclusion) (int64, error) {
	switch state {
	case InclusionPending, InclusionIncluded, InclusionExcluded:
	default:
		return 0, fmt.Errorf("invalid inclusion state %q", state)
	}
	res, err := d.sql.ExecContext(ctx,
		`UPDATE skis SET inclusion_state = ?
		 WHERE shop_id IN (SELECT id FROM shops WHERE code = ?)
		   AND url LIKE ?`,
		string(state), shopCode, urlPattern)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListRuns returns the run ledger, most recent first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, run_at, COALESCE(source_file, ''), min_length_cm, max_length_cm, COALESCE(notes, '')
		 FROM scrape_runs ORDER BY run_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r        Run
			min, max sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.RunAt, &r.SourceFile, &min, &max, &r.Notes); err != nil {
			return nil, err
		}
		if min.Valid {
			v := min.Float64
			r.MinLengthCM = &v
		}
		if max.Valid {
			v := max.Float64
			r.MaxLengthCM = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetStats returns per-shop listing and observation counts.
func (d *DB) GetStats(ctx context.Context) ([]ShopStats, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT
			sh.code,
			COUNT(DISTINCT s.id),
			COUNT(DISTINCT CASE WHEN s.is_active = 1 THEN s.id END),
			COUNT(ph.id)
		FROM shops sh
		LEFT JOIN skis s           ON s.shop_id = sh.id
		LEFT JOIN price_history ph ON ph.ski_id = s.id
		GROUP BY sh.code
		ORDER BY sh.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ShopStats
	for rows.Next() {
		var s ShopStats
		if err := rows.Scan(&s.Code, &s.Listings, &s.Active, &s.Observations); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// LatestPrices returns the current price per listing with the discount
// against its original price, from the v_latest_prices view. An empty
// shop code selects every shop.
func (d *DB) LatestPrices(ctx context.Context, shopCode string) ([]ListingPrice, error) {
	q := `SELECT shop_code, COALESCE(brand, ''), model, length_cm, condition,
	             orig_price, current_price, discount_pct, url
	      FROM v_latest_prices`
	args := []interface{}{}
	if shopCode != "" {
		q += " WHERE shop_code = ?"
		args = append(args, shopCode)
	}
	q += " ORDER BY shop_code, model, length_cm"

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListingPrice
	for rows.Next() {
		var (
			p                      ListingPrice
			length, orig, discount sql.NullFloat64
		)
		if err := rows.Scan(&p.ShopCode, &p.Brand, &p.Model, &length, &p.Condition,
			&orig, &p.CurrentPrice, &discount, &p.URL); err != nil {
			return nil, err
		}
		if length.Valid {
			v := length.Float64
			p.LengthCM = &v
		}
		if orig.Valid {
			v := orig.Float64
			p.OrigPrice = &v
		}
		if discount.Valid {
			v := discount.Float64
			p.DiscountPct = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
