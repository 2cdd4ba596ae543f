// Package main is the entry point for the statsboard CLI.
//
// statsboard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	statsboard serve -c config.yaml    # Start the web dashboard
//	statsboard watch -c config.yaml    # Show the dashboard in the terminal
//	statsboard validate -c config.yaml # Validate configuration
//	statsboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "statsboard",
	Short: "A polling dashboard for capture statistics",
	Long: `statsboard is a polling dashboard for data acquisition statistics.

It queries a stats backend immediately and then on a fixed interval, and
draws each response into its widget: an interface table, ethernet and
capture gauges, and an interface chart. A failed query raises an alert
and leaves its widget unchanged.

Quick start:
  1. Start a backend: statsserver --fake
  2. Run: statsboard serve
  3. Open http://localhost:8080 in your browser

Example config:
  title: VDAS Capture
  poll_interval: 5s
  base_url: ${STATS_URL:-http://127.0.0.1:8000}`,
	PersistentPreRunE: loadEnvFile,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this statsboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("statsboard %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

// loadEnvFile loads the --env-file, if given, before any config is read so
// that its variables are available to ${VAR} expansion.
func loadEnvFile(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("env-file")
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "dotenv file to load before reading the config")

	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
