package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/orchard/internal/logging"
	"github.com/aretw0/orchard/pkg/adapters/process"
	"github.com/aretw0/orchard/pkg/domain"
)

const twoStatePit = `name: handshake
dataModels:
  - name: Hello
    children:
      - name: Text
        type: string
        value: hello
stateModels:
  - name: Proto
    initialState: Init
    states:
      - name: Init
        actions:
          - name: Send
            type: output
            dataModel: Hello
          - name: Next
            type: changeState
            ref: Done
      - name: Done
        actions:
          - name: Bye
            type: output
            dataModel: Hello
tests:
  - name: Default
    stateModel: Proto
    publishers:
      - name: target
        class: memory
`

func writePit(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSetupPersistence(t *testing.T) {
	logger := logging.NewNop()

	t.Run("memory by default", func(t *testing.T) {
		p, err := setupPersistence(RunOptions{}, logger)
		require.NoError(t, err)
		assert.NotNil(t, p.store)
		assert.Nil(t, p.locker)
		assert.NoError(t, p.close())
	})

	t.Run("file", func(t *testing.T) {
		p, err := setupPersistence(RunOptions{Store: StoreFile, StorePath: t.TempDir()}, logger)
		require.NoError(t, err)
		assert.NotNil(t, p.store)
	})

	t.Run("redis brings a locker", func(t *testing.T) {
		mr := miniredis.RunT(t)
		p, err := setupPersistence(RunOptions{Store: StoreRedis, RedisURL: "redis://" + mr.Addr()}, logger)
		require.NoError(t, err)
		defer p.close()
		assert.NotNil(t, p.store)
		assert.NotNil(t, p.locker)
	})

	t.Run("redis without url", func(t *testing.T) {
		_, err := setupPersistence(RunOptions{Store: StoreRedis}, logger)
		assert.Error(t, err)
	})

	t.Run("sealed and redacted", func(t *testing.T) {
		key := strings.Repeat("ab", 32)
		p, err := setupPersistence(RunOptions{StoreKeys: []string{key}, Redact: []string{"hunter2"}}, logger)
		require.NoError(t, err)

		rec := domain.NewRunRecord("run-1", "Default")
		rec.Error = "login hunter2 rejected"
		require.NoError(t, p.store.Save(context.Background(), rec))

		loaded, err := p.store.Load(context.Background(), "run-1")
		require.NoError(t, err)
		assert.Equal(t, "login *** rejected", loaded.Error)
	})

	t.Run("bad store key", func(t *testing.T) {
		_, err := setupPersistence(RunOptions{StoreKeys: []string{"zz"}}, logger)
		assert.ErrorContains(t, err, "not hex")

		_, err = setupPersistence(RunOptions{StoreKeys: []string{"abcd"}}, logger)
		assert.ErrorContains(t, err, "32 bytes")
	})

	t.Run("unknown store", func(t *testing.T) {
		_, err := setupPersistence(RunOptions{Store: "s3"}, logger)
		assert.ErrorContains(t, err, "unknown store")
	})
}

func TestCreateRegistry_Tools(t *testing.T) {
	tools := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(tools, []byte("tools:\n  - name: probe\n    command: \"true\"\n"), 0644))

	reg, err := createRegistry(RunOptions{ToolsPath: tools})
	require.NoError(t, err)

	pub, err := reg.New("process", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"probe"}, pub.(*process.Publisher).Tools())
}

func TestRun_PersistsToFileStore(t *testing.T) {
	var out bytes.Buffer
	storeDir := t.TempDir()

	err := Run(context.Background(), RunOptions{
		PitPath:    writePit(t, twoStatePit),
		Test:       "Default",
		Iterations: 2,
		Store:      StoreFile,
		StorePath:  storeDir,
		Out:        &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "completed after 2 iteration(s), 0 soft failure(s)")

	entries, err := os.ReadDir(storeDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRun_UnknownTest(t *testing.T) {
	err := Run(context.Background(), RunOptions{
		PitPath: writePit(t, twoStatePit),
		Test:    "Missing",
		Out:     &bytes.Buffer{},
	})
	assert.ErrorIs(t, err, domain.ErrTestNotFound)
}

func TestRun_InterruptedIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := Run(ctx, RunOptions{PitPath: writePit(t, twoStatePit), Out: &out})
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "cancelled")
}

func TestValidate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Validate(RunOptions{PitPath: writePit(t, twoStatePit), Out: &out}))
	assert.Contains(t, out.String(), "Pit is valid")

	broken := `stateModels:
  - name: Proto
    initialState: Init
    states:
      - name: Init
        actions:
          - name: Send
            type: output
            dataModel: Missing
          - name: Jump
            type: teleport
`
	out.Reset()
	err := Validate(RunOptions{PitPath: writePit(t, broken), Out: &out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "problem(s)")
	assert.Contains(t, out.String(), `data model "Missing" not found`)
	assert.Contains(t, out.String(), `unknown action type "teleport"`)
}

func TestValidate_WarnsAboutDataFiles(t *testing.T) {
	withFiles := strings.Replace(twoStatePit, "            dataModel: Hello\n          - name: Next",
		"            dataModel: Hello\n            data:\n              name: seeds\n              files: [seed.bin]\n          - name: Next", 1)
	require.NotEqual(t, twoStatePit, withFiles)

	var out bytes.Buffer
	require.NoError(t, Validate(RunOptions{PitPath: writePit(t, withFiles), Out: &out}))
	assert.Contains(t, out.String(), "Pit is valid")
	assert.Contains(t, out.String(), "! Proto.Init.Send: data files [seed.bin] are not loaded")
}

func TestGraph(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Graph(context.Background(), RunOptions{PitPath: writePit(t, twoStatePit), Out: &out}))

	assert.Contains(t, out.String(), "graph TD")
	assert.Contains(t, out.String(), `Init(("Init"))`)
	assert.Contains(t, out.String(), "Init --> Done")
	assert.NotContains(t, out.String(), "Overlay")
}

func TestGraph_Overlay(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := RunOptions{
		PitPath:    writePit(t, twoStatePit),
		Iterations: 1,
		Store:      StoreRedis,
		RedisURL:   "redis://" + mr.Addr(),
	}

	p, err := setupPersistence(opts, logging.NewNop())
	require.NoError(t, err)
	engine, err := createEngine(opts, logging.NewNop(), p, domain.LifecycleHooks{})
	require.NoError(t, err)
	rec, err := engine.Run(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, p.close())

	var out bytes.Buffer
	opts.RunID = rec.ID
	opts.Out = &out
	require.NoError(t, Graph(context.Background(), opts))
	assert.Contains(t, out.String(), "class Init visited;")
	assert.Contains(t, out.String(), "class Done current;")
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(fmt.Errorf("run failed: %w", context.Canceled)))
	boom := errors.New("boom")
	assert.ErrorIs(t, handleExecutionError(boom), boom)
}

func TestDebugHooks_ChainToNext(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithFormat(&buf, slog.LevelDebug, logging.FormatText)

	var got []string
	next := domain.LifecycleHooks{
		OnActionFinished: func(ctx context.Context, e *domain.ActionEvent) {
			got = append(got, e.Action)
		},
	}
	hooks := createDebugHooks(logger, next)

	hooks.OnActionFinished(context.Background(), &domain.ActionEvent{Action: "Send", Kind: domain.KindOutput, Err: errors.New("boom")})
	hooks.OnStateEnter(context.Background(), &domain.StateEvent{StateModel: "Proto", State: "Init"})

	assert.Equal(t, []string{"Send"}, got)
	assert.Contains(t, buf.String(), "Action Finished (Error)")
	assert.Contains(t, buf.String(), "err=boom")
	assert.Contains(t, buf.String(), "state=Init")
}

func TestScaffold_WritesACompilablePit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pit")
	var out bytes.Buffer
	require.NoError(t, Scaffold(context.Background(), dir, &out))
	assert.Contains(t, out.String(), "Wrote models.md")
	assert.Contains(t, out.String(), "Wrote states.md")

	engine, err := createEngine(RunOptions{PitPath: dir}, logging.NewNop(), nil, domain.LifecycleHooks{})
	require.NoError(t, err)
	assert.Equal(t, "sample", engine.Dom().Name)
	assert.Equal(t, []string{"Default"}, engine.Tests())
}

func TestSignalContext_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sc := NewSignalContext(parent)
	cancel()

	<-sc.Done()
	assert.Nil(t, sc.Signal())
	assert.Equal(t, 0, sc.ExitCode())
}

func TestRunWatch_SingleFileIsNotWatchable(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), RunOptions{PitPath: writePit(t, twoStatePit), Watch: true, Out: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Watching")
	assert.NotContains(t, out.String(), "completed")
}
