package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ExportPrefix is the file name prefix shared by all unified exports.
// Files are named skis_unified_YYYYMMDD_HHMM.csv so lexicographic order
// equals chronological order.
const ExportPrefix = "skis_unified_"

// ErrNotEnoughExports is reported when a diff is requested but fewer than
// two export files exist. It is a user-visible condition, not a fault.
var ErrNotEnoughExports = fmt.Errorf("need at least two %s*.csv exports", ExportPrefix)

// ListExports returns all unified export files in dir, sorted by name.
func ListExports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, ExportPrefix) || !strings.HasSuffix(name, ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// LastTwoExports returns the two most recent export files (old, new).
func LastTwoExports(dir string) (string, string, error) {
	files, err := ListExports(dir)
	if err != nil {
		return "", "", err
	}
	if len(files) < 2 {
		return "", "", ErrNotEnoughExports
	}
	return files[len(files)-2], files[len(files)-1], nil
}

// ExportPath builds a timestamped export file path inside dir.
func ExportPath(dir string, now time.Time) string {
	return filepath.Join(dir, ExportPrefix+now.Format("20060102_1504")+".csv")
}

// DiffPath builds the output path for a diff between two export files,
// carrying the dates of both inputs and the diff's own timestamp so
// re-running never overwrites an earlier result.
func DiffPath(dir, oldPath, newPath string, now time.Time) string {
	name := fmt.Sprintf("diff_%s_vs_%s_%s.csv",
		exportDate(oldPath), exportDate(newPath), now.Format("20060102_150405"))
	return filepath.Join(dir, name)
}

// exportDate extracts the YYYYMMDD part of an export file name.
func exportDate(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), ".csv")
	stem = strings.TrimPrefix(stem, ExportPrefix)
	if i := strings.IndexByte(stem, '_'); i > 0 {
		return stem[:i]
	}
	return stem
}
