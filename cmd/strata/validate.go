package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [chart]",
	Short: "Check a chart definition for consistency",
	Long:  `Compiles the chart and reports duplicate ids, dangling parents, parent cycles, and bad transition targets.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, err := chartPath(cmd, args)
	if err != nil {
		return err
	}

	def, err := loadChart(cmd.Context(), path)
	if err != nil {
		return err
	}

	fmt.Println("Chart is valid! ✅")
	fmt.Printf("  name:    %s\n", def.Name)
	fmt.Printf("  states:  %d (%d roots)\n", len(def.States), len(def.Roots()))
	fmt.Printf("  events:  %d\n", len(def.Events))
	if initial := def.State(def.Initial); initial != nil {
		fmt.Printf("  initial: %s\n", initial.Name)
	}
	return nil
}
