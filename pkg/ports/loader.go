package ports

import "context"

// PitLoader retrieves the documents a pit is compiled from.
// This allows the pit source (directory, memory, ...) to be decoupled from the compiler.
type PitLoader interface {
	// GetDocument returns the raw YAML of a document by id.
	GetDocument(id string) ([]byte, error)

	// ListDocuments returns the ids of every document in the pit.
	ListDocuments() ([]string, error)
}

// Watchable is implemented by loaders that can notify about source changes.
type Watchable interface {
	// Watch returns a channel that receives the id of every changed document.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
