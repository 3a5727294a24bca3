package main

import (
	"fmt"

	"github.com/labwatch/labwatch/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the monitor.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a process config file",
	Long: `Validate a labwatch process configuration file without starting
the monitor.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  labwatch validate -c labwatch.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to process config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Settings path: %s\n", cfg.SettingsPath)
	fmt.Printf("  Port:          %d\n", cfg.Port)
	fmt.Printf("  Probe timeout: %s\n", cfg.ProbeTimeout.Duration())
	fmt.Printf("  Tick:          %s\n", cfg.Tick.Duration())

	return nil
}
