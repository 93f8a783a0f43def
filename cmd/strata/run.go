package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanreath/strata/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [chart]",
	Short: "Run a chart interactively",
	Long:  `Assembles an engine from the chart and fires events typed on stdin, narrating each transition.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRun(cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	runCmd.Flags().Bool("debug", false, "Log engine internals to stderr")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress the banner and prompts")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	path, err := chartPath(cmd, args)
	if err != nil {
		return err
	}

	def, err := loadChart(cmd.Context(), path)
	if err != nil {
		return err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	quiet, _ := cmd.Flags().GetBool("quiet")

	return cli.RunSession(def, cli.RunOptions{Debug: debug, Quiet: quiet})
}
