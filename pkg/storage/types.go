package storage

import "errors"

// Inclusion is the tri-state that controls whether a listing keeps
// receiving updates. Pending listings behave like included ones; excluded
// listings are frozen entirely and only SetInclusion may thaw them.
type Inclusion string

const (
	InclusionPending  Inclusion = "pending"
	InclusionIncluded Inclusion = "included"
	InclusionExcluded Inclusion = "excluded"
)

var (
	// ErrAlreadyProcessed marks a snapshot source that has an entry in
	// the processed_files ledger. Importing it again is a skip.
	ErrAlreadyProcessed = errors.New("source already imported")

	// ErrNotEnoughRuns is reported when change detection needs two runs
	// but the run ledger holds fewer.
	ErrNotEnoughRuns = errors.New("fewer than two scrape runs recorded")
)

// Run is one row of the scrape_runs ledger.
type Run struct {
	ID          int64
	RunAt       string
	SourceFile  string
	MinLengthCM *float64
	MaxLengthCM *float64
	Notes       string
}

// ImportStats summarizes a single snapshot import for audit logging.
type ImportStats struct {
	RunID    int64
	Total    int
	Imported int
	Skipped  int
	Frozen   int
	Created  int
}

// ShopStats is one row of the per-shop overview.
type ShopStats struct {
	Code         string
	Listings     int
	Active       int
	Observations int
}

// ListingPrice is one row of the v_latest_prices view.
type ListingPrice struct {
	ShopCode     string
	Brand        string
	Model        string
	LengthCM     *float64
	Condition    string
	OrigPrice    *float64
	CurrentPrice float64
	DiscountPct  *float64
	URL          string
}
