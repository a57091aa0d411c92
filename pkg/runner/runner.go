package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/orchard/internal/logging"
	"github.com/aretw0/orchard/internal/runtime"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/ports"
)

// Runner executes a test for its configured number of iterations.
type Runner struct {
	engine *runtime.Engine
	store  ports.RunStore
	agent  domain.Agent
	logger *slog.Logger

	metrics    *Metrics
	locks      *locks
	iterations int
}

// New creates a runner around engine.
func New(engine *runtime.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		logger: logging.NewNop(),
	}
	r.locks = newLocks(r.logger)
	for _, opt := range opts {
		opt(r)
	}
	r.locks.logger = r.logger
	return r
}

// Run executes test and returns its record.
//
// Each iteration runs the state model once. A soft failure ends only its iteration unless
// the test sets StopOnSoftFailure. Any other error, or ctx being done, ends the run and is
// returned alongside the record. Publishers left open are closed after every iteration and
// publishers left started are stopped once the run ends.
func (r *Runner) Run(ctx context.Context, dom *domain.Dom, test *domain.Test) (*domain.RunRecord, error) {
	if test == nil {
		return nil, fmt.Errorf("runner: nil test")
	}
	if r.engine == nil {
		return nil, fmt.Errorf("runner: no engine configured")
	}

	rec := domain.NewRunRecord(uuid.NewString(), test.Name)
	var runErr error
	err := r.locks.with(ctx, test.Name, func(ctx context.Context) error {
		runErr = r.run(ctx, dom, test, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, runErr
}

func (r *Runner) run(ctx context.Context, dom *domain.Dom, test *domain.Test, rec *domain.RunRecord) (err error) {
	logger := r.logger.With("run_id", rec.ID, "test", test.Name)
	r.save(ctx, logger, rec)

	defer func() {
		r.stopPublishers(context.WithoutCancel(ctx), logger, test)
		r.finish(ctx, logger, rec, err)
	}()

	iterations := test.Options.Iterations
	if r.iterations > 0 {
		iterations = r.iterations
	}
	if iterations <= 0 {
		iterations = domain.DefaultIterations
	}

	logger.Info("run started", "iterations", iterations)
	for i := 1; i <= iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		rc := domain.NewRunContext(dom, test, r.agent)
		rc.RunID = rec.ID
		rc.Iteration = i

		begin := time.Now()
		iterErr := r.engine.RunStateModel(ctx, rc)
		r.closePublishers(context.WithoutCancel(ctx), logger, test)

		rec.Iterations = i
		rec.History = domain.HistoryNames(test.StateModel.History())

		switch {
		case iterErr == nil:
			r.metrics.observeIteration(test.Name, OutcomeOK, time.Since(begin))
		case domain.IsSoft(iterErr):
			rec.SoftFailures++
			r.metrics.observeIteration(test.Name, OutcomeSoft, time.Since(begin))
			logger.Warn("iteration failed softly", "iteration", i, "err", iterErr)
			if test.Options.StopOnSoftFailure {
				return fmt.Errorf("iteration %d: %w", i, iterErr)
			}
		default:
			r.metrics.observeIteration(test.Name, OutcomeFatal, time.Since(begin))
			return fmt.Errorf("iteration %d: %w", i, iterErr)
		}
	}
	return nil
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, rec *domain.RunRecord, err error) {
	rec.FinishedAt = time.Now().UTC()
	switch {
	case err == nil:
		rec.Status = domain.RunStatusCompleted
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		rec.Status = domain.RunStatusCancelled
		rec.Error = err.Error()
	default:
		rec.Status = domain.RunStatusFailed
		rec.Error = err.Error()
	}
	r.metrics.observeRun(rec.Test, rec.Status)
	r.save(context.WithoutCancel(ctx), logger, rec)

	logger.Info("run finished",
		"status", rec.Status,
		"iterations", rec.Iterations,
		"soft_failures", rec.SoftFailures,
	)
}

func (r *Runner) save(ctx context.Context, logger *slog.Logger, rec *domain.RunRecord) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, rec); err != nil {
		logger.Warn("failed to persist run record", "err", err)
	}
}

func (r *Runner) closePublishers(ctx context.Context, logger *slog.Logger, test *domain.Test) {
	for _, np := range test.Publishers() {
		if !np.Publisher.IsOpen() {
			continue
		}
		if err := np.Publisher.Close(ctx, nil); err != nil {
			logger.Warn("failed to close publisher", "publisher", np.Name, "err", err)
		}
	}
}

func (r *Runner) stopPublishers(ctx context.Context, logger *slog.Logger, test *domain.Test) {
	for _, np := range test.Publishers() {
		if !np.Publisher.HasStarted() {
			continue
		}
		if err := np.Publisher.Stop(ctx, nil); err != nil {
			logger.Warn("failed to stop publisher", "publisher", np.Name, "err", err)
		}
	}
}
