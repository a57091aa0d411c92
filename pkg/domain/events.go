package domain

import (
	"context"
	"time"
)

// ActionEvent describes one action invocation.
type ActionEvent struct {
	Timestamp  time.Time  `json:"timestamp"`
	RunID      string     `json:"run_id,omitempty"`
	Iteration  int        `json:"iteration"`
	StateModel string     `json:"state_model"`
	State      string     `json:"state"`
	Action     string     `json:"action"`
	Kind       ActionKind `json:"kind"`
	Publisher  string     `json:"publisher,omitempty"`

	// Skipped is set on the finished event of an action whose guard did not hold.
	Skipped bool  `json:"skipped,omitempty"`
	Err     error `json:"-"`
}

// StateEvent represents entry into or exit from a state.
type StateEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id,omitempty"`
	Iteration  int       `json:"iteration"`
	StateModel string    `json:"state_model"`
	State      string    `json:"state"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnActionStarting func(context.Context, *ActionEvent)
	OnActionFinished func(context.Context, *ActionEvent)
	OnStateEnter     func(context.Context, *StateEvent)
	OnStateLeave     func(context.Context, *StateEvent)
}
