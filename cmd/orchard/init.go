package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/orchard/internal/cli"
)

var initCmd = &cobra.Command{
	Use:   "init <dir>",
	Short: "Write a sample pit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Scaffold(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
