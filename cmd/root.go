package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kmpkg/internal/config"
	"kmpkg/internal/logger"
)

// debug toggles debug logging, set via the persistent --debug flag.
var debug bool

// configPath is the configuration file location, set via --config/-c.
var configPath string

// rootCmd is the base command for the kmpkg CLI.
var rootCmd = &cobra.Command{
	Use:   "kmpkg",
	Short: "Validate and package Keyboard Maestro action bundles",

	// Initialize the logger before any subcommand runs.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(debug)
	},

	// Errors are reported once, by Execute, with the Error: prefix.
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute registers flags and subcommands and runs the CLI. Any failure is
// printed to stderr as a single "Error:" line (red on a terminal) and the
// process exits with status 1.
func Execute() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "Path to configuration file")

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
