package main

import (
	"fmt"

	"github.com/aretw0/layouts/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Export the workflow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of a workflow: layouts with their
dependencies, and the steps that mount them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("workflow")

		logger, err := loggerFromFlags(cmd)
		if err != nil {
			return err
		}
		eng, err := newEngine(cmd, workflowDir(cmd, args), logger)
		if err != nil {
			return err
		}
		if name == "" {
			names := eng.Catalog().Names()
			if len(names) != 1 {
				return fmt.Errorf("choose a workflow with --workflow: %v", names)
			}
			name = names[0]
		}
		wf, err := eng.Workflow(name)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(wf.Definitions, wf.Steps, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("workflow", "w", "", "Workflow to draw (defaults to the only one)")
}
