package cli

import (
	"io"
	"os"
	"time"
)

// Store backends accepted by --store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// StoreKeysEnv names the environment variable holding comma separated store keys.
const StoreKeysEnv = "ORCHARD_STORE_KEYS"

// RunOptions carries the command line configuration shared by every command.
type RunOptions struct {
	PitPath    string
	Test       string
	Iterations int

	Store     string
	StorePath string
	RedisURL  string
	LockTTL   time.Duration

	// StoreKeys are hex AES-256 keys sealing stored runs. The first encrypts, the rest only decrypt.
	StoreKeys []string
	// Redact lists patterns masked out of stored run errors and histories.
	Redact []string

	// RunID selects a stored run whose history `orchard graph` overlays.
	RunID string

	ToolsPath string
	Debug     bool
	LogLevel  string
	Watch     bool

	// Addr is the listen address of `orchard serve`.
	Addr string
	// RunOnServe makes `orchard serve` run Test in the background once the server is up.
	RunOnServe bool

	// Out receives human readable output. Defaults to os.Stdout.
	Out io.Writer
}

func (o RunOptions) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}
