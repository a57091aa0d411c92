package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/orchard/internal/presentation/tui"
	"github.com/aretw0/orchard/pkg/domain"
)

// Run compiles the pit and runs one test, printing a summary of the record.
func Run(ctx context.Context, opts RunOptions) error {
	if opts.Watch {
		return RunWatch(ctx, opts)
	}

	logger := createLogger(opts)
	p, err := setupPersistence(opts, logger)
	if err != nil {
		return err
	}
	defer p.close()

	engine, err := createEngine(opts, logger, p, domain.LifecycleHooks{})
	if err != nil {
		return err
	}

	rec, err := engine.Run(ctx, opts.Test)
	if rec != nil {
		tui.PrintSummary(opts.out(), rec)
	}
	if err != nil {
		return handleExecutionError(fmt.Errorf("run failed: %w", err))
	}
	return nil
}
