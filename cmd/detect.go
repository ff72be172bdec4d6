package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect changes between two recorded scrape runs",
	Long: `Compares two scrape runs already recorded in the database and persists
the sold_out, new_arrival and price_change records into the change tables.
Without explicit run IDs the two most recent runs are compared.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		oldRun, _ := cmd.Flags().GetInt64("old-run")
		newRun, _ := cmd.Flags().GetInt64("new-run")

		records, err := db.DetectChanges(context.Background(), oldRun, newRun)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No changes between the two runs.")
			return nil
		}
		printDiffRecords(records)
		fmt.Printf("%d changes recorded\n", len(records))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().Int64("old-run", 0, "Older run ID (default: second most recent)")
	detectCmd.Flags().Int64("new-run", 0, "Newer run ID (default: most recent)")
	detectCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default from config, skitrack.sqlite)")
}
