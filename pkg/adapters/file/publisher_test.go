package file_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/orchard/pkg/adapters/file"
	"github.com/aretw0/orchard/pkg/domain"
)

func TestPublisher_OutputTruncatesOnOpen(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "fuzzed.bin")
	pub, err := file.Factory(map[string]any{"fileName": out})
	require.NoError(t, err)

	for _, payload := range []string{"first", "second"} {
		require.NoError(t, pub.Start(ctx, nil))
		require.NoError(t, pub.Open(ctx, nil))
		assert.True(t, pub.IsOpen())
		require.NoError(t, pub.Output(ctx, nil, []byte(payload)))
		require.NoError(t, pub.Close(ctx, nil))
	}
	require.NoError(t, pub.Stop(ctx, nil))
	assert.False(t, pub.HasStarted())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestPublisher_Append(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "log.bin")
	pub, err := file.Factory(map[string]any{"fileName": out, "append": "true"})
	require.NoError(t, err)

	for _, payload := range []string{"a", "b"} {
		require.NoError(t, pub.Open(ctx, nil))
		require.NoError(t, pub.Output(ctx, nil, []byte(payload)))
		require.NoError(t, pub.Close(ctx, nil))
	}

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(data))
}

func TestPublisher_OutputRequiresOpen(t *testing.T) {
	pub, err := file.NewPublisher(file.Config{FileName: filepath.Join(t.TempDir(), "x")})
	require.NoError(t, err)
	assert.Error(t, pub.Output(context.Background(), nil, []byte("x")))
}

func TestPublisher_Input(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "reply.bin")
	require.NoError(t, os.WriteFile(in, []byte{0x01, 0x02}, 0644))

	pub, err := file.Factory(map[string]any{"fileName": filepath.Join(dir, "out.bin"), "inputFileName": in})
	require.NoError(t, err)

	r, err := pub.Input(context.Background(), nil)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, data)
}

func TestPublisher_Properties(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pub, err := file.NewPublisher(file.Config{FileName: filepath.Join(dir, "a.bin")})
	require.NoError(t, err)

	next := filepath.Join(dir, "b.bin")
	require.NoError(t, pub.SetProperty(ctx, nil, file.PropertyFileName, []byte(next)))
	v, err := pub.GetProperty(ctx, nil, file.PropertyFileName)
	require.NoError(t, err)
	assert.Equal(t, next, v)

	require.NoError(t, pub.Open(ctx, nil))
	defer pub.Close(ctx, nil)
	assert.Error(t, pub.SetProperty(ctx, nil, file.PropertyFileName, "c.bin"))
	assert.Error(t, pub.SetProperty(ctx, nil, "port", "80"))

	_, err = pub.GetProperty(ctx, nil, "port")
	assert.Error(t, err)
}

func TestPublisher_CallUnsupported(t *testing.T) {
	pub, err := file.NewPublisher(file.Config{FileName: "x"})
	require.NoError(t, err)

	_, err = pub.Call(context.Background(), domain.NewAction("Call", domain.KindCall), "Run", nil)
	assert.True(t, errors.Is(err, errors.ErrUnsupported))
}

func TestFactory_Errors(t *testing.T) {
	_, err := file.Factory(map[string]any{})
	assert.Error(t, err, "fileName is required")

	_, err = file.Factory(map[string]any{"fileName": "x", "port": 80})
	assert.Error(t, err, "unknown parameters are rejected")
}
