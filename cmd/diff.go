package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
)

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff [old.csv new.csv]",
	Short: "Compare two snapshot exports and write the classified changes",
	Long: `Compares two unified snapshot exports and writes the sold_out,
new_arrival and price_change records to a diff CSV. With no arguments the
two most recent exports in the export directory are compared.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := exportDir(cmd)
		if err != nil {
			return err
		}

		var oldPath, newPath string
		switch len(args) {
		case 2:
			oldPath, newPath = args[0], args[1]
		case 0:
			oldPath, newPath, err = snapshot.LastTwoExports(dir)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("pass either two export files or none")
		}

		oldRows, err := snapshot.ReadFile(oldPath)
		if err != nil {
			return fmt.Errorf("read %s: %w", oldPath, err)
		}
		newRows, err := snapshot.ReadFile(newPath)
		if err != nil {
			return fmt.Errorf("read %s: %w", newPath, err)
		}

		records := snapshot.Diff(oldRows, newRows)
		fmt.Printf("Comparing %s -> %s: %d changes\n", oldPath, newPath, len(records))

		// A header-only diff file still gets written: the artifact is
		// what tells a "ran, no changes" run apart from no run at all.
		outPath := snapshot.DiffPath(dir, oldPath, newPath, time.Now())
		if err := snapshot.WriteDiff(outPath, records); err != nil {
			return err
		}
		printDiffRecords(records)
		fmt.Printf("Wrote %s\n", outPath)
		return nil
	},
}

func printDiffRecords(records []snapshot.DiffRecord) {
	for _, rec := range records {
		length := snapshot.FormatFloat(rec.Row.LengthCM)
		if length == "" {
			length = "?"
		}
		switch rec.Status {
		case snapshot.StatusPriceChange:
			fmt.Printf("  %-13s %s %s %scm: %s -> %s\n", rec.Status, rec.Row.Shop, rec.Row.Model,
				length, snapshot.FormatFloat(rec.OldPrice), snapshot.FormatFloat(rec.NewPrice))
		default:
			fmt.Printf("  %-13s %s %s %scm @ %s\n", rec.Status, rec.Row.Shop, rec.Row.Model,
				length, snapshot.FormatFloat(rec.Row.Price))
		}
	}
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
