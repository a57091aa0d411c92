package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/orchard/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "orchard",
	Short: "Orchard is a model-based fuzzing engine",
	Long: `Orchard compiles a pit (data models, state models and tests) and walks its state
models against a target through publishers.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	sigCtx := cli.NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	err := rootCmd.ExecuteContext(sigCtx)
	if code := sigCtx.ExitCode(); code != 0 {
		fmt.Fprintf(os.Stderr, "interrupted by %s\n", sigCtx.Signal())
		os.Exit(code)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("pit", ".", "Pit directory or YAML file")
	rootCmd.PersistentFlags().Bool("debug", false, "Log engine events to stderr")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("store", cli.StoreMemory, "Run store: memory, file or redis")
	rootCmd.PersistentFlags().String("store-path", "", "Directory of the file run store (default .orchard/runs)")
	rootCmd.PersistentFlags().String("redis-url", "", "Redis URL for --store=redis")
	rootCmd.PersistentFlags().StringSlice("redact", nil, "Regexp masked out of stored run errors (repeatable)")
	rootCmd.PersistentFlags().String("tools", "", "tools.yaml allowing commands to process publishers")
}

// runOptions collects the flags shared by every command. A positional argument overrides --pit.
func runOptions(cmd *cobra.Command, args []string) cli.RunOptions {
	flags := cmd.Flags()
	opts := cli.RunOptions{Out: cmd.OutOrStdout()}
	opts.PitPath, _ = flags.GetString("pit")
	if !flags.Changed("pit") && len(args) > 0 {
		opts.PitPath = args[0]
	}
	opts.Debug, _ = flags.GetBool("debug")
	opts.LogLevel, _ = flags.GetString("log-level")
	opts.Store, _ = flags.GetString("store")
	opts.StorePath, _ = flags.GetString("store-path")
	opts.RedisURL, _ = flags.GetString("redis-url")
	opts.ToolsPath, _ = flags.GetString("tools")
	opts.Redact, _ = flags.GetStringSlice("redact")
	if keys := os.Getenv(cli.StoreKeysEnv); keys != "" {
		opts.StoreKeys = strings.Split(keys, ",")
	}

	if flags.Lookup("test") != nil {
		opts.Test, _ = flags.GetString("test")
	}
	if flags.Lookup("iterations") != nil {
		opts.Iterations, _ = flags.GetInt("iterations")
	}
	return opts
}
