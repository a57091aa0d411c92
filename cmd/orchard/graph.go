package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/orchard/internal/cli"
)

var graphCmd = &cobra.Command{
	Use:   "graph [pit]",
	Short: "Export the state model visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the state model a test drives. With --run-id,
the states visited by that stored run are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd, args)
		opts.RunID, _ = cmd.Flags().GetString("run-id")
		return cli.Graph(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("test", "t", "", "Test whose state model is drawn")
	graphCmd.Flags().String("run-id", "", "Stored run to overlay")
}
