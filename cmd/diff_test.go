package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
)

func TestDiffWritesFileWhenNothingChanged(t *testing.T) {
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Fatal(err)
		}
	})

	price := 999.0
	rows := []snapshot.Row{{
		Shop:      "xtreme.ge",
		Model:     "Kore 93",
		Condition: "new",
		Price:     &price,
		URL:       "https://xtreme.ge/kore-93",
	}}

	oldPath := "skis_unified_20260101_0900.csv"
	newPath := "skis_unified_20260102_0900.csv"
	if err := snapshot.WriteUnified(oldPath, rows); err != nil {
		t.Fatal(err)
	}
	if err := snapshot.WriteUnified(newPath, rows); err != nil {
		t.Fatal(err)
	}

	if err := diffCmd.RunE(diffCmd, []string{oldPath, newPath}); err != nil {
		t.Fatal(err)
	}

	matches, err := filepath.Glob(filepath.Join("exports", "diff_*.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one diff file, got %v", matches)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "status") {
		t.Fatalf("expected a header-only diff file, got %q", string(data))
	}
}
