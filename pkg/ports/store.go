package ports

import (
	"context"

	"github.com/aretw0/orchard/pkg/domain"
)

// RunStore persists run records.
type RunStore interface {
	// Save creates or replaces the record with rec.ID.
	Save(ctx context.Context, rec *domain.RunRecord) error

	// Load retrieves a record by id.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, id string) (*domain.RunRecord, error)

	// Delete removes a record. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored runs.
	List(ctx context.Context) ([]string, error)
}
