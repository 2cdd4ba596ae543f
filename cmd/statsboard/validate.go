package main

import (
	"fmt"

	"github.com/jpalmerr/statsboard/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a statsboard configuration file without starting the server.

This command parses the YAML, expands environment variables, validates
all fields and builds every query. It's useful for CI/CD pipelines or
pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  statsboard validate -c config.yaml
  statsboard validate -c config.yaml --env-file production.env`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	queries, err := config.BuildQueries(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	source := "configured"
	if len(cfg.Queries) == 0 {
		source = "default"
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:          %d\n", cfg.Port)
	fmt.Printf("  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Printf("  Base URL:      %s\n", cfg.BaseURL)
	fmt.Printf("  Queries:       %d (%s)\n", len(queries), source)
	for _, q := range queries {
		fmt.Printf("    - %s: %s -> %s (%s)\n", q.Name(), q.URL(), q.Widget(), q.Kind())
	}

	return nil
}
