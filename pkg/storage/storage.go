package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DB is the catalog store: shops, listings, the append-only price ledger
// and the run/processed-file ledgers. All mutating operations run inside
// a single transaction per logical invocation.
type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// withTx runs fn inside a transaction that is rolled back on every exit
// path except a successful commit.
func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// nowISO is the timestamp format used across the schema: ISO8601 UTC,
// second precision.
func nowISO() string {
	return time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}

const schema = `
CREATE TABLE IF NOT EXISTS shops (
  id        INTEGER PRIMARY KEY,
  code      TEXT NOT NULL UNIQUE,
  name      TEXT NOT NULL,
  base_url  TEXT,
  currency  TEXT NOT NULL DEFAULT 'GEL'
);

CREATE TABLE IF NOT EXISTS skis (
  id              INTEGER PRIMARY KEY,
  shop_id         INTEGER NOT NULL REFERENCES shops(id),
  brand           TEXT,
  model           TEXT NOT NULL,
  length_cm       REAL,
  condition       TEXT NOT NULL,
  url             TEXT NOT NULL,
  orig_price      REAL,
  first_seen_at   TEXT NOT NULL,
  last_seen_at    TEXT NOT NULL,
  is_active       INTEGER NOT NULL DEFAULT 1,
  inclusion_state TEXT NOT NULL DEFAULT 'pending'
                  CHECK (inclusion_state IN ('pending','included','excluded')),
  UNIQUE (shop_id, url, length_cm, condition)
);
CREATE INDEX IF NOT EXISTS idx_skis_identity ON skis (shop_id, url, length_cm, condition);

CREATE TABLE IF NOT EXISTS scrape_runs (
  id            INTEGER PRIMARY KEY,
  run_at        TEXT NOT NULL,
  source_file   TEXT,
  min_length_cm REAL,
  max_length_cm REAL,
  notes         TEXT
);
CREATE INDEX IF NOT EXISTS idx_scrape_runs_run_at ON scrape_runs (run_at);

CREATE TABLE IF NOT EXISTS price_history (
  id         INTEGER PRIMARY KEY,
  ski_id     INTEGER NOT NULL REFERENCES skis(id),
  run_id     INTEGER NOT NULL REFERENCES scrape_runs(id),
  price      REAL NOT NULL,
  created_at TEXT NOT NULL,
  UNIQUE (ski_id, run_id)
);
CREATE INDEX IF NOT EXISTS idx_price_history_ski ON price_history (ski_id);
CREATE INDEX IF NOT EXISTS idx_price_history_run ON price_history (run_id);

CREATE TABLE IF NOT EXISTS processed_files (
  id           INTEGER PRIMARY KEY,
  file_name    TEXT NOT NULL UNIQUE,
  run_id       INTEGER NOT NULL REFERENCES scrape_runs(id),
  processed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS changes_new_arrival (
  id         INTEGER PRIMARY KEY,
  run_id     INTEGER NOT NULL REFERENCES scrape_runs(id),
  ski_id     INTEGER NOT NULL REFERENCES skis(id),
  created_at TEXT NOT NULL,
  UNIQUE (run_id, ski_id)
);

CREATE TABLE IF NOT EXISTS changes_sold_out (
  id         INTEGER PRIMARY KEY,
  run_id     INTEGER NOT NULL REFERENCES scrape_runs(id),
  ski_id     INTEGER NOT NULL REFERENCES skis(id),
  created_at TEXT NOT NULL,
  UNIQUE (run_id, ski_id)
);

CREATE TABLE IF NOT EXISTS changes_price_change (
  id         INTEGER PRIMARY KEY,
  run_id     INTEGER NOT NULL REFERENCES scrape_runs(id),
  ski_id     INTEGER NOT NULL REFERENCES skis(id),
  old_price  REAL NOT NULL,
  new_price  REAL NOT NULL,
  created_at TEXT NOT NULL,
  UNIQUE (run_id, ski_id, old_price, new_price)
);

CREATE VIEW IF NOT EXISTS v_latest_prices AS
WITH last_price AS (
  SELECT
    ph.ski_id,
    ph.price,
    sr.run_at,
    ROW_NUMBER() OVER (PARTITION BY ph.ski_id ORDER BY sr.run_at DESC) AS rn
  FROM price_history ph
  JOIN scrape_runs sr ON ph.run_id = sr.id
)
SELECT
  s.id        AS ski_id,
  sh.code     AS shop_code,
  s.brand,
  s.model,
  s.length_cm,
  s.condition,
  s.url,
  s.orig_price,
  lp.price    AS current_price,
  lp.run_at   AS last_price_at,
  CASE
    WHEN s.orig_price IS NOT NULL AND s.orig_price > 0 THEN
      ROUND((s.orig_price - lp.price) * 100.0 / s.orig_price, 1)
    ELSE NULL
  END         AS discount_pct
FROM skis s
JOIN shops sh      ON sh.id = s.shop_id
JOIN last_price lp ON lp.ski_id = s.id AND lp.rn = 1;

CREATE VIEW IF NOT EXISTS v_changes_history AS
SELECT
  ph.id          AS price_history_id,
  sr.id          AS run_id,
  sr.run_at      AS run_at,
  sr.source_file AS source_file,
  s.id           AS ski_id,
  sh.code        AS shop_code,
  s.brand,
  s.model,
  s.length_cm,
  s.condition,
  s.url,
  s.orig_price,
  ph.price       AS price,
  s.first_seen_at,
  s.last_seen_at,
  s.is_active
FROM price_history ph
JOIN skis s         ON s.id = ph.ski_id
JOIN shops sh       ON sh.id = s.shop_id
JOIN scrape_runs sr ON sr.id = ph.run_id;
`
