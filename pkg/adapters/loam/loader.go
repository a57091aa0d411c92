package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"gopkg.in/yaml.v3"
)

// WatchPattern selects the files a pit directory is made of.
const WatchPattern = "**/*.{md,json,yaml,yml}"

// Loader adapts a Loam repository to ports.PitLoader. Every document of the repository
// is a pit fragment; the markdown body, if any, is documentation and is ignored.
type Loader struct {
	Repo *loam.TypedRepository[Metadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[Metadata]) *Loader {
	return &Loader{Repo: repo}
}

// GetDocument returns the pit sections of a document re-encoded as YAML.
func (l *Loader) GetDocument(id string) ([]byte, error) {
	doc, err := l.Repo.Get(context.Background(), id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	data, err := yaml.Marshal(doc.Data.Pit())
	if err != nil {
		return nil, fmt.Errorf("failed to encode document %s: %w", id, err)
	}
	return data, nil
}

// ListDocuments lists the documents of the repository in lexical order. Two documents
// resolving to the same id are an error.
func (l *Loader) ListDocuments() ([]string, error) {
	docs, err := l.Repo.List(context.Background())
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID()
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func trimExtension(id string) string {
	if ext := filepath.Ext(id); ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, WatchPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
