package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPublisherNotFound is returned when an action names a publisher its test does not bind.
	ErrPublisherNotFound = errors.New("publisher not found")

	// ErrStateNotFound is returned when a state name cannot be resolved in a state model.
	ErrStateNotFound = errors.New("state not found")

	// ErrDuplicateState is returned when a state model already holds a state with that name.
	ErrDuplicateState = errors.New("duplicate state")

	// ErrSlurp is returned when a slurp selector matches the wrong number of elements.
	ErrSlurp = errors.New("slurp failed")

	// ErrUnknownActionKind is returned when an action kind is outside the known set.
	ErrUnknownActionKind = errors.New("unknown action kind")

	// ErrSoftFailure marks a failure that ends the current iteration but not the run.
	ErrSoftFailure = errors.New("soft failure")

	// ErrRunNotFound is returned when a run id cannot be found in the store.
	ErrRunNotFound = errors.New("run not found")

	// ErrTestNotFound is returned when a test name cannot be resolved in a pit.
	ErrTestNotFound = errors.New("test not found")
)

// PublisherNotFoundError reports the unresolved publisher name.
type PublisherNotFoundError struct {
	Action    string
	Publisher string
}

func (e *PublisherNotFoundError) Error() string {
	return fmt.Sprintf("action %q: publisher %q not found", e.Action, e.Publisher)
}

func (e *PublisherNotFoundError) Unwrap() error { return ErrPublisherNotFound }

// StateNotFoundError reports the unresolved state name.
type StateNotFoundError struct {
	Action     string
	StateModel string
	State      string
}

func (e *StateNotFoundError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("state model %q: state %q not found", e.StateModel, e.State)
	}
	return fmt.Sprintf("action %q: state %q not found in state model %q", e.Action, e.State, e.StateModel)
}

func (e *StateNotFoundError) Unwrap() error { return ErrStateNotFound }

// SlurpError reports a selector that matched nothing, or too much.
type SlurpError struct {
	Action   string
	Selector string
	Matches  int
	Err      error
}

func (e *SlurpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("action %q: slurp selector %q: %v", e.Action, e.Selector, e.Err)
	}
	return fmt.Sprintf("action %q: slurp selector %q matched %d elements", e.Action, e.Selector, e.Matches)
}

func (e *SlurpError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSlurp, e.Err}
	}
	return []error{ErrSlurp}
}

// UnknownActionKindError is an internal invariant violation: the kind set is closed.
type UnknownActionKindError struct {
	Action string
	Kind   ActionKind
}

func (e *UnknownActionKindError) Error() string {
	return fmt.Sprintf("action %q: unknown kind %q", e.Action, e.Kind)
}

func (e *UnknownActionKindError) Unwrap() error { return ErrUnknownActionKind }

// SoftError wraps a recoverable failure, such as input that could not be cracked.
type SoftError struct {
	Action string
	Err    error
}

func (e *SoftError) Error() string {
	return fmt.Sprintf("action %q: %v", e.Action, e.Err)
}

func (e *SoftError) Unwrap() []error { return []error{ErrSoftFailure, e.Err} }

// IsSoft reports whether err is a soft failure.
func IsSoft(err error) bool {
	return errors.Is(err, ErrSoftFailure)
}
