package snapshot

import "sort"

// Diff compares two snapshots and classifies every identity in their
// union as sold_out (present only in old), new_arrival (present only in
// new) or price_change (present in both with a different price). Keys
// present in both with an equal price contribute nothing.
//
// Prices are compared exactly after permissive parsing; a row whose price
// failed to parse is treated as "price unknown", and two unknowns compare
// equal. When the same identity appears more than once inside one
// snapshot the last row wins.
//
// Output ordering is deterministic regardless of input row order:
// (shop, model, length), with unknown length before any numeric length.
func Diff(old, new []Row) []DiffRecord {
	oldMap := buildMap(old)
	newMap := buildMap(new)

	var out []DiffRecord
	for key, oldRow := range oldMap {
		newRow, ok := newMap[key]
		if !ok {
			out = append(out, DiffRecord{Status: StatusSoldOut, Row: oldRow})
			continue
		}
		if floatEqual(oldRow.Price, newRow.Price) {
			continue
		}
		out = append(out, DiffRecord{
			Status:   StatusPriceChange,
			Row:      newRow,
			OldPrice: oldRow.Price,
			NewPrice: newRow.Price,
		})
	}
	for key, newRow := range newMap {
		if _, ok := oldMap[key]; !ok {
			out = append(out, DiffRecord{Status: StatusNewArrival, Row: newRow})
		}
	}

	sortRecords(out)
	return out
}

func buildMap(rows []Row) map[Key]Row {
	m := make(map[Key]Row, len(rows))
	for _, r := range rows {
		m[KeyFor(r)] = r
	}
	return m
}

func sortRecords(records []DiffRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Row.Shop != b.Row.Shop {
			return a.Row.Shop < b.Row.Shop
		}
		if a.Row.Model != b.Row.Model {
			return a.Row.Model < b.Row.Model
		}
		al, bl := lengthRank(a.Row.LengthCM), lengthRank(b.Row.LengthCM)
		if al != bl {
			return al < bl
		}
		// Same (shop, model, length) can legitimately appear for more
		// than one status or URL; break the tie on those too.
		if a.Status != b.Status {
			return a.Status < b.Status
		}
		return a.Row.URL < b.Row.URL
	})
}

// lengthRank orders unknown lengths before all numeric ones.
func lengthRank(l *float64) float64 {
	if l == nil {
		return -1
	}
	return *l
}
