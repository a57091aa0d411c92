package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/orchard"
	httpAdapter "github.com/aretw0/orchard/pkg/adapters/http"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/runner"
)

// shutdownTimeout bounds how long in-flight requests get once the server is asked to stop.
const shutdownTimeout = 5 * time.Second

// Serve exposes runs, engine events and metrics over HTTP until ctx is done.
// With RunOnServe the test is run in the background so its events can be followed live.
func Serve(ctx context.Context, opts RunOptions) error {
	logger := createLogger(opts)
	w := opts.out()

	p, err := setupPersistence(opts, logger)
	if err != nil {
		return err
	}
	defer p.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := runner.NewMetrics(reg)
	streams := httpAdapter.NewStreamManager(logger)

	engine, err := createEngine(opts, logger, p, streams.Hooks(domain.LifecycleHooks{}), orchard.WithMetrics(metrics))
	if err != nil {
		return err
	}

	handler := httpAdapter.NewHandler(p.store,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithStreams(streams),
		httpAdapter.WithInfo(httpAdapter.NewInfo(engine.Dom(), orchard.Version)),
		httpAdapter.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end with ctx instead of holding up Shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(w, "Starting Orchard Server on %s", srv.Addr)
		printSystemMessage(w, "Serving pit: %s", opts.PitPath)
		serverErrors <- srv.ListenAndServe()
	}()

	if opts.RunOnServe {
		go func() {
			rec, err := engine.Run(ctx, opts.Test)
			if err != nil && !isInterrupted(err) {
				logger.Error("background run failed", "err", err)
			}
			if rec != nil {
				printSystemMessage(w, "Run %s finished: %s", rec.ID, rec.Status)
			}
		}()
	}

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		printSystemMessage(w, "Start shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		printSystemMessage(w, "Orchard Server stopped gracefully")
		return nil
	}
}
