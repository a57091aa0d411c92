package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/orchard/internal/logging"
	"github.com/aretw0/orchard/pkg/domain"
)

// SignalContext is cancelled by SIGINT or SIGTERM and remembers which one arrived,
// so an interrupted fuzzing run can exit with the conventional status.
type SignalContext struct {
	context.Context
	Cancel func()

	mu  sync.Mutex
	sig os.Signal
}

// NewSignalContext starts watching for SIGINT and SIGTERM until parent or the returned
// context is done.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{Context: ctx, Cancel: cancel}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			sc.mu.Lock()
			sc.sig = sig
			sc.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()
	return sc
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sig
}

// ExitCode maps the received signal to a shell exit status: 128 plus the signal number.
// It returns 0 when no signal arrived.
func (sc *SignalContext) ExitCode() int {
	sig, ok := sc.Signal().(syscall.Signal)
	if !ok {
		return 0
	}
	return 128 + int(sig)
}

// createLogger configures the application logger on Stderr, away from run output.
// --debug wins over --log-level; with neither only warnings and errors are shown.
func createLogger(opts RunOptions) *slog.Logger {
	switch {
	case opts.Debug:
		return logging.New(slog.LevelDebug)
	case opts.LogLevel != "":
		return logging.New(logging.ParseLevel(opts.LogLevel))
	}
	return logging.New(slog.LevelWarn)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// createDebugHooks logs every engine event at debug level before handing it to next.
func createDebugHooks(logger *slog.Logger, next domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.Debug("Enter State", "state_model", e.StateModel, "state", e.State)
			if next.OnStateEnter != nil {
				next.OnStateEnter(ctx, e)
			}
		},
		OnStateLeave: func(ctx context.Context, e *domain.StateEvent) {
			logger.Debug("Leave State", "state_model", e.StateModel, "state", e.State)
			if next.OnStateLeave != nil {
				next.OnStateLeave(ctx, e)
			}
		},
		OnActionStarting: func(ctx context.Context, e *domain.ActionEvent) {
			logger.Debug("Action Starting", "action", e.Action, "kind", e.Kind, "publisher", e.Publisher, "iteration", e.Iteration)
			if next.OnActionStarting != nil {
				next.OnActionStarting(ctx, e)
			}
		},
		OnActionFinished: func(ctx context.Context, e *domain.ActionEvent) {
			switch {
			case e.Skipped:
				logger.Debug("Action Skipped", "action", e.Action, "kind", e.Kind)
			case e.Err != nil:
				logger.Debug("Action Finished (Error)", "action", e.Action, "kind", e.Kind, "err", e.Err)
			default:
				logger.Debug("Action Finished", "action", e.Action, "kind", e.Kind)
			}
			if next.OnActionFinished != nil {
				next.OnActionFinished(ctx, e)
			}
		},
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

// handleExecutionError maps interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}
