// Package main is the entry point for the labwatch CLI.
//
// labwatch can be run either as a library (SDK) or as a standalone daemon.
// This CLI provides the standalone approach.
//
// Usage:
//
//	labwatch serve -c labwatch.yaml    # Run the monitor and HTTP API
//	labwatch check -c labwatch.yaml    # Probe all services once and exit
//	labwatch validate -c labwatch.yaml # Validate the process config
//	labwatch version                   # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "labwatch",
	Short: "A TCP service monitor with a live status API",
	Long: `labwatch monitors a set of network endpoints by periodically
attempting a TCP connection to each, and serves the aggregated health over
an HTTP API with Server-Sent Events for live updates.

The monitored service list, probe interval, and icon set preference live in
a JSON settings file that the HTTP mutation API edits at runtime; changes
take effect on the next poll tick without a restart.

Quick start:
  1. Run: labwatch serve
  2. Check status: curl http://localhost:8080/api/status
  3. Add a service:
     curl -X POST http://localhost:8080/api/services \
       -d '{"name":"SSH Box","ip":"10.0.0.5","port":"22"}'`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
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
	Long:  `Print the version, commit hash, and build date of this labwatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("labwatch %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
