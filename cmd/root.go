package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gkhutsishvili/skitrack/internal/utils"
	"github.com/gkhutsishvili/skitrack/pkg/scrape"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skitrack",
	Short: "Track ski listings and prices across Georgian ski shops.",
	Long: `skitrack scrapes ski catalogs from xtreme.ge, snowmania.ge, megasport.ge
and burusports.ge, keeps every observed price in a local SQLite catalog and
reports what changed between runs: new arrivals, sold-out listings and price
changes.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.skitrack.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("dir", "d", "", "Directory holding the snapshot exports (default from config, \"exports\")")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".skitrack")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.skitrack.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	viper.SetDefault("export_dir", "exports")
	viper.SetDefault("dbpath", "skitrack.sqlite")
	viper.SetDefault("min_length_cm", scrape.DefaultMinLengthCM)
	viper.SetDefault("max_length_cm", scrape.DefaultMaxLengthCM)

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// exportDir resolves the snapshot directory: the --dir flag wins, then the
// config file, then "exports".
func exportDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = viper.GetString("export_dir")
	}
	if dir == "" {
		dir = "exports"
	}
	return expandPath(dir)
}

// expandPath resolves a leading ~ to the user's home directory.
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		return homedir.Expand(path)
	}
	return path, nil
}
