package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Strata runs hierarchical state machines from chart definitions",
	Long: `Strata is a hierarchical state machine engine. Charts declare states,
their parent hierarchy, and event transition tables; instances of a
chart dispatch events through the hierarchy and persist their position
across restarts.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("chart", "c", "", "Chart definition: a YAML file or a loam document directory")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}
