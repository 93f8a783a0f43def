package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanreath/strata/internal/presentation/graph"
	"github.com/lanreath/strata/internal/presentation/tui"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [chart]",
	Short: "Export the chart visualization",
	Long:  `Compiles the chart and outputs a Mermaid state diagram (stateDiagram-v2) of its hierarchy and transitions.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runGraph(cmd, args); err != nil {
			fmt.Printf("Error generating graph: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	graphCmd.Flags().Bool("render", false, "Render the diagram as styled markdown instead of raw Mermaid")
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	path, err := chartPath(cmd, args)
	if err != nil {
		return err
	}

	def, err := loadChart(cmd.Context(), path)
	if err != nil {
		return err
	}

	output := graph.GenerateMermaid(def, nil)

	if render, _ := cmd.Flags().GetBool("render"); render {
		renderer := tui.NewRenderer()
		styled, err := renderer("```mermaid\n" + output + "```\n")
		if err != nil {
			return err
		}
		fmt.Print(styled)
		return nil
	}

	fmt.Print(output)
	return nil
}
