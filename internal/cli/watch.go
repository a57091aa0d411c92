package cli

import (
	"context"
	"time"

	"github.com/aretw0/orchard"
	"github.com/aretw0/orchard/internal/presentation/tui"
	"github.com/aretw0/orchard/pkg/domain"
)

// reloadBackoff is how long the watcher waits before retrying a pit that failed to load.
const reloadBackoff = 2 * time.Second

// RunWatch runs the test, then runs it again every time a pit document changes,
// until ctx is done.
func RunWatch(ctx context.Context, opts RunOptions) error {
	logger := createLogger(opts)
	w := opts.out()
	tui.PrintBanner(w, orchard.Version)

	p, err := setupPersistence(opts, logger)
	if err != nil {
		return err
	}
	defer p.close()

	logger.Info("Starting Watcher", "path", opts.PitPath)
	printSystemMessage(w, "Watching '%s'.", opts.PitPath)

	for {
		if !runWatchIteration(ctx, opts, p) {
			return nil
		}
		logger.Info("Watcher restarting")
	}
}

// runWatchIteration runs the test once and blocks until the pit changes.
// It reports whether the watcher should go around again.
func runWatchIteration(parent context.Context, opts RunOptions, p *persistence) bool {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	logger := createLogger(opts)
	w := opts.out()

	engine, err := createEngine(opts, logger, p, domain.LifecycleHooks{})
	if err != nil {
		logger.Error("Engine initialization failed", "err", err)
		select {
		case <-parent.Done():
			return false
		case <-time.After(reloadBackoff):
			return true
		}
	}

	changes, err := engine.Watch(ctx)
	if err != nil {
		logger.Error("Watch unavailable", "err", err)
		return false
	}

	rec, err := engine.Run(ctx, opts.Test)
	if rec != nil {
		tui.PrintSummary(w, rec)
	}
	if err != nil && !isInterrupted(err) {
		printSystemMessage(w, "Run failed: %v", err)
	}

	select {
	case <-parent.Done():
		return false
	case id, ok := <-changes:
		if !ok {
			return false
		}
		printSystemMessage(w, "'%s' changed, reloading.", id)
		return true
	}
}
