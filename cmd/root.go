package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string // Log verbosity level
	configPath string // Optional YAML file with tier and attention defaults
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "tiered-attention",
	Short: "Tiered memory placement and paged attention",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config with tiers and attention sections")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(attendCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(loadCmd)
}
