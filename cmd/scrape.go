package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gkhutsishvili/skitrack/pkg/scrape"
	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the shops and write a unified snapshot export",
	Long: `Scrapes the selected shops and writes one unified CSV snapshot
(skis_unified_YYYYMMDD_HHMM.csv) into the export directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := exportDir(cmd)
		if err != nil {
			return err
		}

		shopsFlag, _ := cmd.Flags().GetString("shops")
		testRun, _ := cmd.Flags().GetBool("test")
		minLen, _ := cmd.Flags().GetInt("min")
		maxLen, _ := cmd.Flags().GetInt("max")
		if minLen == 0 {
			minLen = viper.GetInt("min_length_cm")
		}
		if maxLen == 0 {
			maxLen = viper.GetInt("max_length_cm")
		}

		names := scrape.ShopNames()
		if shopsFlag != "" {
			names = nil
			for _, n := range strings.Split(shopsFlag, ",") {
				if n = strings.TrimSpace(n); n != "" {
					names = append(names, n)
				}
			}
		}

		rows := scrape.Run(names, scrape.Options{
			FirstPageOnly: testRun,
			MinLengthCM:   minLen,
			MaxLengthCM:   maxLen,
		})
		if len(rows) == 0 {
			return fmt.Errorf("no rows scraped from %s", strings.Join(names, ", "))
		}

		path := snapshot.ExportPath(dir, time.Now())
		if err := snapshot.WriteUnified(path, rows); err != nil {
			return err
		}
		fmt.Printf("Wrote %d rows to %s\n", len(rows), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().StringP("shops", "s", "", "Comma-separated shops to scrape (default all: "+strings.Join(scrape.ShopNames(), ",")+")")
	scrapeCmd.Flags().BoolP("test", "t", false, "Quick run: first category page of each shop only")
	scrapeCmd.Flags().Int("min", 0, "Minimum accepted ski length in cm (default from config)")
	scrapeCmd.Flags().Int("max", 0, "Maximum accepted ski length in cm (default from config)")
}
