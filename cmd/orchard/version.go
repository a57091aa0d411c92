package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/orchard"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of orchard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "orchard version %s\n", orchard.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
