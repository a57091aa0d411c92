package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/orchard/internal/presentation/graph"
	"github.com/aretw0/orchard/pkg/domain"
)

// Graph prints a Mermaid diagram of the state model behind opts.Test. With RunID, the
// history of that stored run is overlaid.
func Graph(ctx context.Context, opts RunOptions) error {
	logger := createLogger(opts)
	p, err := setupPersistence(opts, logger)
	if err != nil {
		return err
	}
	defer p.close()

	engine, err := createEngine(opts, logger, nil, domain.LifecycleHooks{})
	if err != nil {
		return err
	}

	sm, err := selectStateModel(engine.Dom(), opts.Test)
	if err != nil {
		return err
	}

	var overlay *graph.GraphOverlay
	if opts.RunID != "" {
		rec, err := p.store.Load(ctx, opts.RunID)
		if err != nil {
			return fmt.Errorf("failed to load run %s: %w", opts.RunID, err)
		}
		overlay = &graph.GraphOverlay{History: rec.History}
	}

	fmt.Fprint(opts.out(), graph.GenerateMermaid(sm, overlay))
	return nil
}

// selectStateModel resolves the state model a test drives. Without a test name, a pit
// with a single state model needs no test at all.
func selectStateModel(dom *domain.Dom, testName string) (*domain.StateModel, error) {
	if testName != "" {
		t := dom.Test(testName)
		if t == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrTestNotFound, testName)
		}
		return t.StateModel, nil
	}
	if tests := dom.Tests(); len(tests) == 1 {
		return tests[0].StateModel, nil
	}
	if models := dom.StateModels(); len(models) == 1 {
		return models[0], nil
	}
	return nil, fmt.Errorf("pit has several tests, name one with --test")
}
