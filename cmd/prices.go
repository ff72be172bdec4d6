package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
)

// pricesCmd represents the prices command
var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Show the latest price per listing with its discount",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		shop, _ := cmd.Flags().GetString("shop")
		prices, err := db.LatestPrices(context.Background(), shop)
		if err != nil {
			return err
		}
		if len(prices) == 0 {
			fmt.Println("No price observations in the database.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SHOP\tBRAND\tMODEL\tLENGTH\tCOND\tORIG\tPRICE\tDISC%\t")
		for _, p := range prices {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.0f\t%s\t\n",
				p.ShopCode, p.Brand, p.Model,
				snapshot.FormatFloat(p.LengthCM), p.Condition,
				snapshot.FormatFloat(p.OrigPrice), p.CurrentPrice,
				snapshot.FormatFloat(p.DiscountPct))
		}
		w.Flush()
		fmt.Printf("%d listings\n", len(prices))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pricesCmd)
	pricesCmd.Flags().StringP("shop", "s", "", "Only show listings of this shop code")
	pricesCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default from config, skitrack.sqlite)")
}
