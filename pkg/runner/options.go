package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithStore configures the RunStore records are persisted to.
// Without one, records are only returned.
func WithStore(store ports.RunStore) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithAgent sets the agent handed to every run context.
func WithAgent(agent domain.Agent) Option {
	return func(r *Runner) {
		r.agent = agent
	}
}

// WithLocker enables distributed locking of runs by test name.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(r *Runner) {
		r.locks.locker = locker
		if ttl > 0 {
			r.locks.ttl = ttl
		}
	}
}

// WithMetrics records iteration and run metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithIterations overrides the iteration count of every test run.
func WithIterations(n int) Option {
	return func(r *Runner) {
		r.iterations = n
	}
}
