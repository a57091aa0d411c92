package cli

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/orchard"
	"github.com/aretw0/orchard/pkg/adapters/file"
	"github.com/aretw0/orchard/pkg/adapters/memory"
	"github.com/aretw0/orchard/pkg/adapters/process"
	"github.com/aretw0/orchard/pkg/adapters/redis"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/persistence/middleware"
	"github.com/aretw0/orchard/pkg/ports"
	"github.com/aretw0/orchard/pkg/registry"
)

// persistence bundles the run store selected on the command line with its locker.
type persistence struct {
	store  ports.RunStore
	locker ports.DistributedLocker
	close  func() error
}

// setupPersistence opens the run store named by opts.Store.
// Redis also provides the distributed lock so concurrent runs of a test are serialized.
func setupPersistence(opts RunOptions, logger *slog.Logger) (*persistence, error) {
	p, err := openStore(opts, logger)
	if err != nil {
		return nil, err
	}
	mws, err := storeMiddlewares(opts)
	if err != nil {
		_ = p.close()
		return nil, err
	}
	p.store = middleware.Chain(p.store, mws...)
	return p, nil
}

func openStore(opts RunOptions, logger *slog.Logger) (*persistence, error) {
	switch opts.Store {
	case "", StoreMemory:
		return &persistence{store: memory.NewStore(), close: func() error { return nil }}, nil
	case StoreFile:
		logger.Debug("using file run store", "path", opts.StorePath)
		return &persistence{store: file.NewStore(opts.StorePath), close: func() error { return nil }}, nil
	case StoreRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("--redis-url is required with --store=redis")
		}
		store, err := redis.NewFromURL(opts.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.Debug("using redis run store")
		return &persistence{
			store:  store,
			locker: redis.NewLocker(store.Client(), redis.DefaultPrefix),
			close:  store.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store %q (want memory, file or redis)", opts.Store)
}

// storeMiddlewares redacts before sealing, so the encrypted payload is already masked.
func storeMiddlewares(opts RunOptions) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(opts.Redact) > 0 {
		mw, err := middleware.NewRedactMiddleware(opts.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if len(opts.StoreKeys) > 0 {
		keys := make([][]byte, len(opts.StoreKeys))
		for i, k := range opts.StoreKeys {
			key, err := hex.DecodeString(strings.TrimSpace(k))
			if err != nil {
				return nil, fmt.Errorf("store key %d is not hex: %w", i, err)
			}
			keys[i] = key
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    keys[0],
			FallbackKeys: keys[1:],
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// createRegistry returns the default registry. With --tools, process publishers start
// with the tools of that file allowed.
func createRegistry(opts RunOptions) (*registry.Registry, error) {
	reg := orchard.DefaultRegistry()
	if opts.ToolsPath == "" {
		return reg, nil
	}
	tools, err := process.LoadTools(opts.ToolsPath)
	if err != nil {
		return nil, err
	}
	reg.Register("process", process.NewFactory(process.WithTools(tools)))
	return reg, nil
}

// createEngine initializes an Orchard engine with standard CLI conventions.
func createEngine(opts RunOptions, logger *slog.Logger, p *persistence, hooks domain.LifecycleHooks, extra ...orchard.Option) (*orchard.Engine, error) {
	reg, err := createRegistry(opts)
	if err != nil {
		return nil, err
	}

	if opts.Debug {
		hooks = createDebugHooks(logger, hooks)
	}

	engineOpts := []orchard.Option{
		orchard.WithLogger(logger),
		orchard.WithRegistry(reg),
		orchard.WithLifecycleHooks(hooks),
	}
	if opts.Iterations > 0 {
		engineOpts = append(engineOpts, orchard.WithIterations(opts.Iterations))
	}
	if p != nil {
		engineOpts = append(engineOpts, orchard.WithStore(p.store))
		if p.locker != nil {
			engineOpts = append(engineOpts, orchard.WithLocker(p.locker, opts.LockTTL))
		}
	}
	engineOpts = append(engineOpts, extra...)

	engine, err := orchard.New(opts.PitPath, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
