package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/orchard/pkg/adapters/memory"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/persistence/middleware"
	"github.com/aretw0/orchard/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next ports.RunStore, cfg middleware.EncryptionConfig) ports.RunStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunRunStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	rec := domain.NewRunRecord("run-1", "Default")
	rec.Status = domain.RunStatusFailed
	rec.History = []string{"Init.Login"}
	rec.Error = "target replied: password=hunter2"
	require.NoError(t, secure.Save(ctx, rec))

	stored, err := underlying.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, stored.History)
	assert.Empty(t, stored.Error)
	assert.NotEmpty(t, stored.Sealed)
	assert.NotContains(t, stored.Sealed, "hunter2")
	assert.Equal(t, domain.RunStatusFailed, stored.Status, "status stays readable")

	loaded, err := secure.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, rec.History, loaded.History)
	assert.Equal(t, rec.Error, loaded.Error)
	assert.Empty(t, loaded.Sealed)

	assert.Equal(t, "target replied: password=hunter2", rec.Error, "caller record is untouched")
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	oldStore := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	rec := domain.NewRunRecord("run-1", "Default")
	rec.Error = "encrypted-with-old-key"
	require.NoError(t, oldStore.Save(ctx, rec))

	newStore := encrypted(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := newStore.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "encrypted-with-old-key", loaded.Error)

	loaded.Error = "encrypted-with-new-key"
	require.NoError(t, newStore.Save(ctx, loaded))

	_, err = oldStore.Load(ctx, "run-1")
	assert.Error(t, err, "old key alone cannot open a record sealed with the new key")
}

func TestEncryptionMiddleware_RejectsClearRecords(t *testing.T) {
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(context.Background(), domain.NewRunRecord("plain", "Default")))

	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := secure.Load(context.Background(), "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorContains(t, err, "32 bytes")

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorContains(t, err, "fallback key 0")
}
