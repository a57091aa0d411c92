package orchard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/loam"

	"github.com/aretw0/orchard/internal/runtime"
	"github.com/aretw0/orchard/pkg/adapters/file"
	loamAdapter "github.com/aretw0/orchard/pkg/adapters/loam"
	"github.com/aretw0/orchard/pkg/adapters/memory"
	"github.com/aretw0/orchard/pkg/adapters/process"
	"github.com/aretw0/orchard/pkg/crack"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/pit"
	"github.com/aretw0/orchard/pkg/ports"
	"github.com/aretw0/orchard/pkg/registry"
	"github.com/aretw0/orchard/pkg/runner"
	"github.com/aretw0/orchard/pkg/script"
)

// Version of the orchard module.
const Version = "0.4.0"

// Engine is the high-level entry point for the Orchard library.
// It compiles a pit and runs its tests.
type Engine struct {
	mu  sync.RWMutex
	dom *domain.Dom

	runtime   *runtime.Engine
	runner    *runner.Runner
	loader    ports.PitLoader
	registry  *registry.Registry
	evaluator script.Evaluator
	cracker   ports.Cracker
	hooks     domain.LifecycleHooks
	logger    *slog.Logger

	pollInterval time.Duration
	pollTimeout  time.Duration

	runnerOpts []runner.Option
	metrics    *runner.Metrics

	Name string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom PitLoader, bypassing the default Loam initialization.
func WithLoader(l ports.PitLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithEvaluator sets the script evaluator used for guards, hooks and scripted padding.
func WithEvaluator(eval script.Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = eval
	}
}

// WithCracker sets the cracker used by input actions.
func WithCracker(c ports.Cracker) Option {
	return func(e *Engine) {
		e.cracker = c
	}
}

// WithRegistry replaces the default publisher registry.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithAgent hands agent to every action of every run.
func WithAgent(agent domain.Agent) Option {
	return func(e *Engine) {
		e.runnerOpts = append(e.runnerOpts, runner.WithAgent(agent))
	}
}

// WithAgentPolling configures how often a running agent call is polled and for how long.
func WithAgentPolling(interval, timeout time.Duration) Option {
	return func(e *Engine) {
		e.pollInterval, e.pollTimeout = interval, timeout
	}
}

// WithStore persists the record of every run.
func WithStore(store ports.RunStore) Option {
	return func(e *Engine) {
		e.runnerOpts = append(e.runnerOpts, runner.WithStore(store))
	}
}

// WithLocker serializes runs of the same test across processes.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.runnerOpts = append(e.runnerOpts, runner.WithLocker(locker, ttl))
	}
}

// WithMetrics records engine and run metrics into m.
func WithMetrics(m *runner.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
		e.runnerOpts = append(e.runnerOpts, runner.WithMetrics(m))
	}
}

// WithIterations overrides the iteration count of every test.
func WithIterations(n int) Option {
	return func(e *Engine) {
		e.runnerOpts = append(e.runnerOpts, runner.WithIterations(n))
	}
}

// DefaultRegistry returns a registry with the built-in publisher classes:
// "memory", "file" and "process".
func DefaultRegistry() *registry.Registry {
	r := registry.NewRegistry()
	r.Register("memory", memory.Factory)
	r.Register("file", file.Factory)
	r.Register("process", process.Factory)
	return r
}

// New compiles the pit at pitPath and prepares its tests to run.
// pitPath is either a directory, read through Loam, or a single YAML file.
// If WithLoader is provided, pitPath only names the pit and may be empty.
func New(pitPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if pitPath == "" {
			return nil, fmt.Errorf("pitPath is required when no custom loader is provided")
		}
		loader, name, err := openPit(pitPath)
		if err != nil {
			return nil, err
		}
		eng.loader, eng.Name = loader, name
	} else if pitPath != "" {
		eng.Name = filepath.Base(pitPath)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("pit", eng.Name)
	}
	if eng.registry == nil {
		eng.registry = DefaultRegistry()
	}
	if eng.evaluator == nil {
		eng.evaluator = script.NewExprEvaluator()
	}
	if eng.cracker == nil {
		eng.cracker = crack.New(crack.WithLogger(eng.logger))
	}

	hooks := eng.hooks
	if eng.metrics != nil {
		hooks = eng.metrics.Hooks(hooks)
	}
	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(hooks),
		runtime.WithEvaluator(eng.evaluator),
		runtime.WithCracker(eng.cracker),
	}
	if eng.pollInterval > 0 || eng.pollTimeout > 0 {
		runtimeOpts = append(runtimeOpts, runtime.WithAgentPolling(eng.pollInterval, eng.pollTimeout))
	}
	eng.runtime = runtime.NewEngine(runtimeOpts...)
	eng.runner = runner.New(eng.runtime, append([]runner.Option{runner.WithLogger(eng.logger)}, eng.runnerOpts...)...)

	if err := eng.Reload(); err != nil {
		return nil, err
	}
	return eng, nil
}

func openPit(pitPath string) (ports.PitLoader, string, error) {
	absPath, err := filepath.Abs(pitPath)
	if err != nil {
		return nil, "", fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open pit: %w", err)
	}

	if !info.IsDir() {
		data, err := os.ReadFile(absPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read pit: %w", err)
		}
		name := strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
		return memory.NewLoader(map[string]string{name: string(data)}), name, nil
	}

	// Strict mode keeps numbers as json.Number across the JSON and YAML adapters.
	// Read-only mode keeps Loam from creating its sandbox; a pit is never written.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialize loam: %w", err)
	}
	typedRepo := loam.NewTypedRepository[loamAdapter.Metadata](repo)
	return loamAdapter.New(typedRepo), filepath.Base(absPath), nil
}

// Reload recompiles the pit from the loader. On failure the previous Dom stays in place.
func (e *Engine) Reload() error {
	doc, err := pit.Load(e.loader)
	if err != nil {
		return fmt.Errorf("failed to load pit: %w", err)
	}
	if doc.Name == "" {
		doc.Name = e.Name
	}

	compiler := pit.NewCompiler(
		pit.WithRegistry(e.registry),
		pit.WithEvaluator(e.evaluator),
		pit.WithLogger(e.logger),
	)
	dom, err := compiler.Compile(doc)
	if err != nil {
		return fmt.Errorf("failed to compile pit: %w", err)
	}
	if err := pit.Validate(dom); err != nil {
		return fmt.Errorf("invalid pit: %w", err)
	}

	e.mu.Lock()
	e.dom = dom
	e.mu.Unlock()
	e.logger.Debug("pit loaded", "tests", len(dom.Tests()))
	return nil
}

// Dom returns the compiled pit.
func (e *Engine) Dom() *domain.Dom {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dom
}

// Tests returns the names of the tests of the pit, in declaration order.
func (e *Engine) Tests() []string {
	dom := e.Dom()
	names := make([]string, 0, len(dom.Tests()))
	for _, t := range dom.Tests() {
		names = append(names, t.Name)
	}
	return names
}

// Run runs the named test. An empty name selects the only test of the pit.
// The record is returned even when the run fails, so callers can inspect how far it got.
func (e *Engine) Run(ctx context.Context, testName string) (*domain.RunRecord, error) {
	dom := e.Dom()
	test, err := selectTest(dom, testName)
	if err != nil {
		return nil, err
	}
	return e.runner.Run(ctx, dom, test)
}

func selectTest(dom *domain.Dom, name string) (*domain.Test, error) {
	if name != "" {
		if t := dom.Test(name); t != nil {
			return t, nil
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrTestNotFound, name)
	}
	tests := dom.Tests()
	switch len(tests) {
	case 0:
		return nil, fmt.Errorf("%w: pit defines no tests", domain.ErrTestNotFound)
	case 1:
		return tests[0], nil
	}
	return nil, fmt.Errorf("pit defines %d tests, name the one to run", len(tests))
}

// Watch returns a channel that receives the id of every changed pit document.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

// Loader returns the underlying PitLoader used by the engine.
func (e *Engine) Loader() ports.PitLoader {
	return e.loader
}

// Validate compiles the pit at pitPath and reports every problem found.
func Validate(pitPath string, opts ...Option) error {
	_, err := New(pitPath, opts...)
	return err
}
