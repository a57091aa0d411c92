package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/orchard/pkg/adapters/file"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/ports"
)

func TestStore_Contract(t *testing.T) {
	ports.RunRunStoreContract(t, file.NewStore(t.TempDir()))
}

func TestStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.NewStore(dir)

	rec := domain.NewRunRecord("run-1", "Default")
	require.NoError(t, store.Save(context.Background(), rec))
	rec.Status = domain.RunStatusCompleted
	require.NoError(t, store.Save(context.Background(), rec))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-1.json", entries[0].Name())
}

func TestStore_ListMissingDirectory(t *testing.T) {
	store := file.NewStore(filepath.Join(t.TempDir(), "missing"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_EmptyID(t *testing.T) {
	store := file.NewStore(t.TempDir())
	assert.Error(t, store.Save(context.Background(), domain.NewRunRecord("", "Default")))
	_, err := store.Load(context.Background(), "")
	assert.Error(t, err)
}

func TestStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0644))

	_, err := file.NewStore(dir).Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRunNotFound)
}
