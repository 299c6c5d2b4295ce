package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "marketdash",
	Short: "stock market dashboard backend",
	Long:  `Serves quote, chart and search data for the stock market dashboard UI`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	viper.SetDefault("LOG_LEVEL", "debug")
	viper.SetDefault("LOG_FILE", "logs/marketdash.log")
	viper.AutomaticEnv()
}
