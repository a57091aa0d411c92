package memory

import (
	"fmt"
	"sort"
)

// Loader implements ports.PitLoader using an in-memory map.
type Loader struct {
	docs map[string][]byte
}

// NewLoader creates a new Loader with the provided raw YAML documents.
func NewLoader(data map[string]string) *Loader {
	docs := make(map[string][]byte)
	for k, v := range data {
		docs[k] = []byte(v)
	}
	return &Loader{docs: docs}
}

// GetDocument retrieves the raw definition of a document by id.
func (l *Loader) GetDocument(id string) ([]byte, error) {
	content, ok := l.docs[id]
	if !ok {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	return content, nil
}

// ListDocuments returns all available document ids.
func (l *Loader) ListDocuments() ([]string, error) {
	keys := make([]string, 0, len(l.docs))
	for k := range l.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
