package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/orchard/internal/logging"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/ports"
	"github.com/aretw0/orchard/pkg/script"
)

// Engine executes actions and runs state models.
// It holds no per-run state; everything a run mutates lives in the RunContext and the
// action models it reaches.
type Engine struct {
	evaluator script.Evaluator
	cracker   ports.Cracker
	hooks     domain.LifecycleHooks
	logger    *slog.Logger

	// Zero values defer to the test options.
	pollInterval time.Duration
	callTimeout  time.Duration
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithEvaluator sets the evaluator used for guards and start/complete hooks.
func WithEvaluator(eval script.Evaluator) EngineOption {
	return func(e *Engine) {
		if eval != nil {
			e.evaluator = eval
		}
	}
}

// WithCracker sets the cracker used by input actions.
func WithCracker(c ports.Cracker) EngineOption {
	return func(e *Engine) {
		e.cracker = c
	}
}

// WithAgentPolling overrides the agent call poll interval and timeout of every test.
func WithAgentPolling(interval, timeout time.Duration) EngineOption {
	return func(e *Engine) {
		e.pollInterval = interval
		e.callTimeout = timeout
	}
}

// NewEngine creates an engine. Without options it evaluates expressions with expr-lang,
// logs nowhere and has no cracker, so input actions fail until one is configured.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		evaluator: script.NewExprEvaluator(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluator returns the engine's expression evaluator.
func (e *Engine) Evaluator() script.Evaluator { return e.evaluator }

func (e *Engine) agentPolling(test *domain.Test) (interval, timeout time.Duration) {
	interval, timeout = e.pollInterval, e.callTimeout
	if test != nil {
		if interval <= 0 {
			interval = test.Options.AgentPollInterval
		}
		if timeout <= 0 {
			timeout = test.Options.AgentCallTimeout
		}
	}
	if interval <= 0 {
		interval = domain.DefaultAgentPollInterval
	}
	if timeout <= 0 {
		timeout = domain.DefaultAgentCallTimeout
	}
	return interval, timeout
}
