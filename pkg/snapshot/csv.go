package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// UnifiedHeader is the column set of an export file. A leading ordinal
// column ("№") may be present in either direction and carries no data.
var UnifiedHeader = []string{
	"№", "shop", "brand", "model", "length_cm", "condition", "orig_price", "price", "url",
}

// DiffHeader is the column set of a diff file.
var DiffHeader = []string{
	"№", "status", "shop", "brand", "model", "length_cm", "condition", "orig_price", "price", "url",
}

// ReadFile reads a unified snapshot CSV into rows. Columns are matched by
// header name, so column order and unknown extra columns do not matter.
// A UTF-8 BOM on the first header cell is tolerated.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses unified snapshot rows from r.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, Row{
			Shop:      strings.TrimSpace(field(record, "shop")),
			Brand:     strings.TrimSpace(field(record, "brand")),
			Model:     strings.TrimSpace(field(record, "model")),
			Condition: strings.TrimSpace(field(record, "condition")),
			LengthCM:  ParseFloat(field(record, "length_cm")),
			OrigPrice: ParseFloat(field(record, "orig_price")),
			Price:     ParseFloat(field(record, "price")),
			URL:       strings.TrimSpace(field(record, "url")),
		})
	}
	return rows, nil
}

// WriteUnified writes rows as a unified export file with a 1-based
// ordinal column. Intermediate directories are created as needed.
func WriteUnified(path string, rows []Row) error {
	return writeCSV(path, UnifiedHeader, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			strconv.Itoa(i + 1),
			r.Shop,
			r.Brand,
			r.Model,
			FormatFloat(r.LengthCM),
			r.Condition,
			FormatFloat(r.OrigPrice),
			FormatFloat(r.Price),
			r.URL,
		}
	})
}

// WriteDiff writes classified diff records with a 1-based ordinal column.
// The price column holds the new observed price for price_change records.
func WriteDiff(path string, records []DiffRecord) error {
	return writeCSV(path, DiffHeader, len(records), func(i int) []string {
		d := records[i]
		return []string{
			strconv.Itoa(i + 1),
			string(d.Status),
			d.Row.Shop,
			d.Row.Brand,
			d.Row.Model,
			FormatFloat(d.Row.LengthCM),
			d.Row.Condition,
			FormatFloat(d.Row.OrigPrice),
			FormatFloat(d.Row.Price),
			d.Row.URL,
		}
	})
}

func writeCSV(path string, header []string, n int, record func(i int) []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(record(i)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
