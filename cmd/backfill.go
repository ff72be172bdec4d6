package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gkhutsishvili/skitrack/internal/utils"
	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
)

// backfillCmd represents the backfill command
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Fill missing original prices from historical exports",
	Long: `Scans every unified export, oldest first, and fills orig_price for
catalog listings that still lack one. An original price is write-once:
listings that already have one are never touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := exportDir(cmd)
		if err != nil {
			return err
		}
		db, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		rows, err := allExportRows(dir)
		if err != nil {
			return err
		}

		updated, err := db.BackfillOrigPrices(context.Background(), rows)
		if err != nil {
			return err
		}
		fmt.Printf("Backfilled original prices for %d listings\n", updated)
		return nil
	},
}

// allExportRows reads every export in dir, oldest first, into one slice.
// An unreadable export is reported and skipped.
func allExportRows(dir string) ([]snapshot.Row, error) {
	files, err := snapshot.ListExports(dir)
	if err != nil {
		return nil, err
	}
	var rows []snapshot.Row
	for _, path := range files {
		r, err := snapshot.ReadFile(path)
		if err != nil {
			utils.Log.Errorf("%s: %v", filepath.Base(path), err)
			continue
		}
		rows = append(rows, r...)
	}
	return rows, nil
}

func init() {
	rootCmd.AddCommand(backfillCmd)
	backfillCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default from config, skitrack.sqlite)")
}
