package snapshot

import (
	"strconv"
	"strings"
)

// Row is one unified listing observation as produced by a scrape export.
// Numeric fields that may be absent or unparseable are nil.
type Row struct {
	Shop      string
	Brand     string
	Model     string
	Condition string
	LengthCM  *float64
	OrigPrice *float64
	Price     *float64
	URL       string
}

// Status classifies a single diff record.
type Status string

const (
	StatusSoldOut     Status = "sold_out"
	StatusNewArrival  Status = "new_arrival"
	StatusPriceChange Status = "price_change"
)

// DiffRecord is one classified difference between two snapshots.
// Descriptive fields come from the new row, except for sold_out records
// where only the old row exists. OldPrice and NewPrice are both set for
// price_change records only.
type DiffRecord struct {
	Status   Status
	Row      Row
	OldPrice *float64
	NewPrice *float64
}

// ParseFloat parses a price or length value permissively: surrounding
// whitespace is trimmed, embedded spaces removed and a comma is accepted
// as the decimal separator. Empty or non-numeric input yields nil.
func ParseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// FormatFloat renders an optional numeric for CSV output. Nil becomes the
// empty string, whole values drop the fraction ("170" not "170.000000").
func FormatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func floatPtr(f float64) *float64 { return &f }

func floatEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
