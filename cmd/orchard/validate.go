package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/orchard/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [pit]",
	Short: "Check the pit for consistency",
	Long: `Compiles the pit and reports every problem found: unknown data models, unresolved
change-state targets, publishers a test does not bind and invalid selectors.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Validate(runOptions(cmd, args))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
