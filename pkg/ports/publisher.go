package ports

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/orchard/pkg/datamodel"
	"github.com/aretw0/orchard/pkg/domain"
)

// Publisher is the transport port. It is declared next to the entities that reference it.
type Publisher = domain.Publisher

// Agent is the agent channel port.
type Agent = domain.Agent

// ErrCrackingFailure marks input that does not match the data model.
var ErrCrackingFailure = errors.New("cracking failure")

// CrackingFailure reports where cracking stopped.
type CrackingFailure struct {
	Element string
	Err     error
}

func (e *CrackingFailure) Error() string {
	return fmt.Sprintf("cracking %q: %v", e.Element, e.Err)
}

func (e *CrackingFailure) Unwrap() []error { return []error{ErrCrackingFailure, e.Err} }

// Cracker parses bytes read from r into model, mutating it in place.
// Malformed input is reported with an error wrapping ErrCrackingFailure.
type Cracker interface {
	Crack(ctx context.Context, model *datamodel.DataModel, r io.Reader) error
}

// CrackerFunc adapts a function to the Cracker interface.
type CrackerFunc func(ctx context.Context, model *datamodel.DataModel, r io.Reader) error

// Crack calls f.
func (f CrackerFunc) Crack(ctx context.Context, model *datamodel.DataModel, r io.Reader) error {
	return f(ctx, model, r)
}
