package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"
)

// checkCmd probes every configured service once and exits.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe all services once and exit",
	Long: `Probe every configured service once, print the verdicts, and exit.

Exit codes:
  0 - All services are reachable
  1 - At least one service is down (or the config could not be loaded)

Example:
  labwatch check
  labwatch check -c labwatch.yaml`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("config", "c", "", "path to process config file (optional)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := buildApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create labwatch: %w", err)
	}

	services := app.ListServices()
	refresh := app.CheckNow(cmd.Context())

	for i, status := range refresh.Services {
		mark := "OK  "
		if !status.Healthy {
			mark = "DOWN"
		}
		addr := ""
		if i < len(services) {
			addr = net.JoinHostPort(services[i].Host, services[i].Port)
		}
		fmt.Printf("%s %s (%s) %dms\n", mark, status.Name, addr, status.Latency.Milliseconds())
	}

	if !refresh.Healthy {
		down := 0
		for _, status := range refresh.Services {
			if !status.Healthy {
				down++
			}
		}
		cmd.SilenceUsage = true
		return fmt.Errorf("%d of %d services down", down, len(refresh.Services))
	}

	fmt.Printf("All %d services reachable\n", len(refresh.Services))
	return nil
}
