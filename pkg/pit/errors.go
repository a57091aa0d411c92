package pit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPit is matched by every error Compile and Validate report about pit content.
var ErrInvalidPit = errors.New("invalid pit")

// ValidationError represents a single problem in a pit.
type ValidationError struct {
	Path   string // Dotted location, e.g. "StateModel.Init.Jump"
	Reason string // Human-readable reason for failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidPit }

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

type problems []error

func (p *problems) add(path, format string, args ...any) {
	*p = append(*p, &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)})
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return &AggregateError{Errors: p}
}
