package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded scrape runs, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := db.ListRuns(context.Background(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No scrape runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "RUN\tAT\tSOURCE\tMIN\tMAX\tNOTES\t")
		for _, r := range runs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
				r.ID, r.RunAt, r.SourceFile,
				snapshot.FormatFloat(r.MinLengthCM), snapshot.FormatFloat(r.MaxLengthCM), r.Notes)
		}
		w.Flush()
		return nil
	},
}

func init() {
	dbCmd.AddCommand(runsCmd)
	runsCmd.Flags().Int("limit", 50, "Maximum number of runs to list")
}
