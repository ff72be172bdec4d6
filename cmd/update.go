package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gkhutsishvili/skitrack/internal/utils"
	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
	"github.com/gkhutsishvili/skitrack/pkg/storage"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Import new exports, backfill original prices and detect changes",
	Long: `The full maintenance pass: import every unprocessed export, fill
missing original prices from the whole export history, then detect and
record the changes between the two most recent runs.`,
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

		ctx := context.Background()

		files, err := snapshot.ListExports(dir)
		if err != nil {
			return err
		}
		processed, err := db.ProcessedFiles(ctx)
		if err != nil {
			return err
		}

		var imported int
		for _, path := range files {
			name := filepath.Base(path)
			if processed[name] {
				continue
			}
			rows, err := snapshot.ReadFile(path)
			if err != nil {
				utils.Log.Errorf("%s: %v", name, err)
				continue
			}
			stats, err := db.ImportSnapshot(ctx, name, rows)
			if err != nil {
				utils.Log.Errorf("%s: %v", name, err)
				continue
			}
			imported++
			fmt.Printf("%s: run %d, %d rows imported\n", name, stats.RunID, stats.Imported)
		}
		fmt.Printf("Imported %d new exports\n", imported)

		rows, err := allExportRows(dir)
		if err != nil {
			return err
		}
		updated, err := db.BackfillOrigPrices(ctx, rows)
		if err != nil {
			return err
		}
		fmt.Printf("Backfilled original prices for %d listings\n", updated)

		records, err := db.DetectChanges(ctx, 0, 0)
		if errors.Is(err, storage.ErrNotEnoughRuns) {
			fmt.Println("Fewer than two runs recorded, skipping change detection.")
			return nil
		}
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No changes between the two most recent runs.")
			return nil
		}
		printDiffRecords(records)
		fmt.Printf("%d changes recorded\n", len(records))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default from config, skitrack.sqlite)")
}
