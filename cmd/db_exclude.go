package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gkhutsishvili/skitrack/pkg/storage"
)

// excludeCmd represents the exclude command
var excludeCmd = &cobra.Command{
	Use:   "exclude",
	Short: "Freeze listings so imports stop updating them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setInclusion(cmd, storage.InclusionExcluded)
	},
}

// includeCmd represents the include command
var includeCmd = &cobra.Command{
	Use:   "include",
	Short: "Thaw excluded listings so imports update them again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setInclusion(cmd, storage.InclusionIncluded)
	},
}

func setInclusion(cmd *cobra.Command, state storage.Inclusion) error {
	shop, _ := cmd.Flags().GetString("shop")
	pattern, _ := cmd.Flags().GetString("url")
	if shop == "" || pattern == "" {
		return fmt.Errorf("please provide both --shop and --url")
	}

	db, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.SetInclusion(context.Background(), shop, pattern, state)
	if err != nil {
		return err
	}
	fmt.Printf("Marked %d listings of %s as %s\n", n, shop, state)
	return nil
}

func init() {
	dbCmd.AddCommand(excludeCmd)
	dbCmd.AddCommand(includeCmd)
	excludeCmd.Flags().StringP("shop", "s", "", "Shop code, e.g. xtreme.ge")
	excludeCmd.Flags().StringP("url", "u", "", "Listing URL or LIKE pattern to exclude")
	includeCmd.Flags().StringP("shop", "s", "", "Shop code, e.g. xtreme.ge")
	includeCmd.Flags().StringP("url", "u", "", "Listing URL or LIKE pattern to include")
}
