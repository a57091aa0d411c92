package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/orchard/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run [pit]",
	Short: "Run a test of the pit",
	Long:  `Compiles the pit and runs one of its tests for the configured number of iterations.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd, args)
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		return cli.Run(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("test", "t", "", "Test to run (optional when the pit has one test)")
	runCmd.Flags().IntP("iterations", "n", 0, "Override the iteration count of the test")
	runCmd.Flags().BoolP("watch", "w", false, "Run again every time the pit changes")
}
