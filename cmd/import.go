package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gkhutsishvili/skitrack/internal/utils"
	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import new snapshot exports into the catalog database",
	Long: `Imports every unified export from the export directory that is not yet
in the processed_files ledger. Each export becomes one scrape run; exports
already imported are skipped, so re-running is always safe.`,
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

		var imported, skipped, failed int
		for _, path := range files {
			name := filepath.Base(path)
			if processed[name] {
				skipped++
				continue
			}

			rows, err := snapshot.ReadFile(path)
			if err != nil {
				utils.Log.Errorf("%s: %v", name, err)
				failed++
				continue
			}
			stats, err := db.ImportSnapshot(ctx, name, rows)
			if err != nil {
				// One broken export must not stop the older or newer ones.
				utils.Log.Errorf("%s: %v", name, err)
				failed++
				continue
			}
			imported++
			fmt.Printf("%s: run %d, %d/%d rows imported (%d new listings, %d skipped, %d frozen)\n",
				name, stats.RunID, stats.Imported, stats.Total, stats.Created, stats.Skipped, stats.Frozen)
		}

		fmt.Printf("Imported %d exports (%d already processed, %d failed)\n", imported, skipped, failed)
		if failed > 0 {
			return fmt.Errorf("%d exports failed to import", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default from config, skitrack.sqlite)")
}
