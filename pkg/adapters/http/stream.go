package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/orchard/internal/logging"
	"github.com/aretw0/orchard/pkg/domain"
)

// Event is one message of the /events stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// StreamManager fans engine events out to SSE subscribers. Subscribers are keyed by run
// id; the empty key receives every run.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates a manager with no subscribers.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for runID and returns it with its cancel func.
func (sm *StreamManager) Subscribe(runID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 64)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan string]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

// Broadcast sends msg to the subscribers of runID and to those of every run.
// Slow subscribers lose messages instead of blocking the engine.
func (sm *StreamManager) Broadcast(runID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := []string{""}
	if runID != "" {
		keys = append(keys, runID)
	}
	for _, key := range keys {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: client buffer full, dropping message", "run_id", runID)
			}
		}
	}
}

func (sm *StreamManager) publish(runID, typ string, data any) {
	payload, err := json.Marshal(Event{Type: typ, Data: data})
	if err != nil {
		sm.logger.Error("SSE: failed to encode event", "type", typ, "err", err)
		return
	}
	sm.Broadcast(runID, string(payload))
}

// Hooks returns lifecycle hooks that publish engine events, then call next.
func (sm *StreamManager) Hooks(next domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActionStarting: func(ctx context.Context, e *domain.ActionEvent) {
			sm.publish(e.RunID, "action_starting", e)
			if next.OnActionStarting != nil {
				next.OnActionStarting(ctx, e)
			}
		},
		OnActionFinished: func(ctx context.Context, e *domain.ActionEvent) {
			data := struct {
				*domain.ActionEvent
				Error string `json:"error,omitempty"`
			}{ActionEvent: e}
			if e.Err != nil {
				data.Error = e.Err.Error()
			}
			sm.publish(e.RunID, "action_finished", data)
			if next.OnActionFinished != nil {
				next.OnActionFinished(ctx, e)
			}
		},
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			sm.publish(e.RunID, "state_enter", e)
			if next.OnStateEnter != nil {
				next.OnStateEnter(ctx, e)
			}
		},
		OnStateLeave: func(ctx context.Context, e *domain.StateEvent) {
			sm.publish(e.RunID, "state_leave", e)
			if next.OnStateLeave != nil {
				next.OnStateLeave(ctx, e)
			}
		},
	}
}
