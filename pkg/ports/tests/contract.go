package tests

import (
	"testing"

	"github.com/aretw0/orchard/pkg/ports"
)

// PitLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.PitLoader.
func PitLoaderContractTest(t *testing.T, loader ports.PitLoader, setupData map[string][]byte) {
	t.Helper()

	t.Run("GetDocument_Success", func(t *testing.T) {
		for id, expected := range setupData {
			content, err := loader.GetDocument(id)
			if err != nil {
				t.Fatalf("unexpected error getting document %s: %v", id, err)
			}
			if string(content) != string(expected) {
				t.Errorf("content mismatch for %s. got %q, want %q", id, content, expected)
			}
		}
	})

	t.Run("GetDocument_NotFound", func(t *testing.T) {
		if _, err := loader.GetDocument("non-existent-document"); err == nil {
			t.Error("expected error for non-existent document, got nil")
		}
	})

	t.Run("ListDocuments", func(t *testing.T) {
		ids, err := loader.ListDocuments()
		if err != nil {
			t.Fatalf("unexpected error listing documents: %v", err)
		}
		if len(ids) != len(setupData) {
			t.Errorf("expected %d documents, got %d", len(setupData), len(ids))
		}

		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}
		for id := range setupData {
			if !lookup[id] {
				t.Errorf("document %s missing from list", id)
			}
		}
	})
}
