package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/orchard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		rec := domain.NewRunRecord(runID, "Default")
		rec.Iterations = 3
		rec.SoftFailures = 1
		rec.History = []string{"Init.Send", "Init.Recv"}

		require.NoError(t, store.Save(ctx, rec), "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.ID, loaded.ID)
		assert.Equal(t, "Default", loaded.Test)
		assert.Equal(t, domain.RunStatusRunning, loaded.Status)
		assert.Equal(t, 3, loaded.Iterations)
		assert.Equal(t, 1, loaded.SoftFailures)
		assert.Equal(t, rec.History, loaded.History)
	})

	t.Run("Overwrite", func(t *testing.T) {
		rec := domain.NewRunRecord(runID, "Default")
		rec.Status = domain.RunStatusCompleted
		require.NoError(t, store.Save(ctx, rec))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunStatusCompleted, loaded.Status)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewRunRecord(runID, "Default")))
		require.NoError(t, store.Delete(ctx, runID), "Delete should not return error")

		_, err := store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewRunRecord(id1, "Default")))
		require.NoError(t, store.Save(ctx, domain.NewRunRecord(id2, "Default")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
