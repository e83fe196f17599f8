// Package cli implements the enginectl command line: -o/--open an existing
// machine snapshot, -c/--config a config directory, -s/--start-state-path
// the resolved entry state, --remote for remote control mode, and
// signal-driven graceful shutdown.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	openPath       string
	configPath     string
	startStatePath string
	remoteMode     bool
	shutdownGrace  int
)

var rootCmd = &cobra.Command{
	Use:   "enginectl",
	Short: "Run and inspect hierarchical state machines",
	Long: `enginectl drives a hierarchical state-machine execution engine.

With no flags it starts the built-in demo machine and runs it until it
finishes or a shutdown signal arrives. With --open it loads a previously
saved snapshot and prints it instead of running anything.`,
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&openPath, "open", "o", "", "path to a saved snapshot to open and inspect")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "directory holding snapshots (default: $HOME/.rafcore)")
	rootCmd.Flags().StringVarP(&startStatePath, "start-state-path", "s", "", "state-ID path to start execution from, relative to the root")
	rootCmd.Flags().BoolVar(&remoteMode, "remote", false, "remote control mode: skip the built-in demo and exit; no remote control transport is wired up, so nothing waits for external control")
	rootCmd.Flags().IntVar(&shutdownGrace, "shutdown-grace-seconds", 3, "seconds to wait for a clean stop after a shutdown signal before giving up")
}

// Execute runs the enginectl root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "enginectl: %v\n", err)
		os.Exit(1)
	}
}
