package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/orchard/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve [pit]",
	Short: "Start the introspection HTTP server",
	Long: `Serves the run store, live engine events (server-sent events) and Prometheus
metrics over HTTP. With --run, the selected test runs in the background.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd, args)
		opts.Addr, _ = cmd.Flags().GetString("addr")
		opts.RunOnServe, _ = cmd.Flags().GetBool("run")
		return cli.Serve(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("run", false, "Run the test in the background")
	serveCmd.Flags().StringP("test", "t", "", "Test to run with --run")
	serveCmd.Flags().IntP("iterations", "n", 0, "Override the iteration count of the test")
}
