package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "flowplan",
	Short: "Turn process descriptions into validated task graphs",
	Long: `Flowplan turns free-text business-process descriptions into validated
task dependency graphs, Mermaid diagrams, and ownership plans that split
the work between AI agents and humans.

Core capabilities:
- Decomposes a process description into discrete tasks
- Validates and repairs the dependency graph (cycles, dangling refs)
- Compiles a Mermaid flowchart of the workflow
- Clusters tasks into agent and human owners with task contracts
- Optionally consults Claude for richer proposals, falling back to
  deterministic heuristics when it is unavailable`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Print debug logs to stderr")

	rootCmd.AddCommand(decomposeCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// debugLog returns the engine debug logger for the current flags.
func debugLog() func(format string, args ...interface{}) {
	if !debugFlag {
		return nil
	}
	return func(format string, args ...interface{}) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
