package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/orchard/internal/cli"
)

func TestRunOptions_PositionalPit(t *testing.T) {
	require.NoError(t, runCmd.ParseFlags([]string{"--test", "Default", "-n", "3"}))
	opts := runOptions(runCmd, []string{"./login"})

	assert.Equal(t, "./login", opts.PitPath)
	assert.Equal(t, "Default", opts.Test)
	assert.Equal(t, 3, opts.Iterations)
	assert.Equal(t, "memory", opts.Store)
}

func TestRunOptions_StoreHardening(t *testing.T) {
	t.Setenv(cli.StoreKeysEnv, "aa,bb")
	require.NoError(t, graphCmd.ParseFlags([]string{"--redact", `password=\S+`, "--redact", "token", "--log-level", "info"}))
	opts := runOptions(graphCmd, nil)

	assert.Equal(t, []string{"aa", "bb"}, opts.StoreKeys)
	assert.Equal(t, []string{`password=\S+`, "token"}, opts.Redact)
	assert.Equal(t, "info", opts.LogLevel)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "orchard version")
}
