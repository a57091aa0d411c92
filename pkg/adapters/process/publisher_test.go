package process_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/orchard/pkg/adapters/process"
	"github.com/aretw0/orchard/pkg/datamodel"
	"github.com/aretw0/orchard/pkg/domain"
)

func skipWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestPublisher_CallRegisteredCommand(t *testing.T) {
	skipWindows(t)
	pub := process.NewPublisher()
	pub.Register("hello", "sh", "-c", "echo hello")

	got, err := pub.Call(context.Background(), nil, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	code, err := pub.GetProperty(context.Background(), nil, "exitCode")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestPublisher_UnregisteredCommand(t *testing.T) {
	_, err := process.NewPublisher().Call(context.Background(), nil, "rm", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestPublisher_ParametersArriveAsEnvironment(t *testing.T) {
	skipWindows(t)
	pub := process.NewPublisher()
	pub.Register("echo_env", "sh", "-c", "echo $ORCHARD_PARAM_USER_NAME")

	param := domain.NewActionParameter("user-name",
		datamodel.NewDataModel("User", datamodel.NewString("Value", "guest")))

	got, err := pub.Call(context.Background(), nil, "echo_env", []*domain.ActionParameter{param})
	require.NoError(t, err)
	assert.Equal(t, "guest", got)
}

func TestPublisher_OutputIsPipedAndStdoutIsInput(t *testing.T) {
	skipWindows(t)
	ctx := context.Background()
	pub := process.NewPublisher()
	pub.Register("cat", "cat")

	require.NoError(t, pub.Output(ctx, nil, []byte("ping")))
	_, err := pub.Call(ctx, nil, "cat", nil)
	require.NoError(t, err)

	r, err := pub.Input(ctx, nil)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(data))

	// the payload is consumed by the call
	got, err := pub.Call(ctx, nil, "cat", nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestPublisher_JSONResult(t *testing.T) {
	skipWindows(t)
	pub := process.NewPublisher()
	pub.Register("status", "sh", "-c", `echo '{"crashed": false}'`)

	got, err := pub.Call(context.Background(), nil, "status", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"crashed": false}, got)
}

func TestPublisher_NonZeroExit(t *testing.T) {
	skipWindows(t)
	pub := process.NewPublisher()
	pub.Register("fail", "sh", "-c", "echo broken >&2; exit 3")

	_, err := pub.Call(context.Background(), nil, "fail", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	code, err := pub.GetProperty(context.Background(), nil, "exitCode")
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestPublisher_Lifecycle(t *testing.T) {
	ctx := context.Background()
	pub := process.NewPublisher()
	assert.False(t, pub.HasStarted())

	require.NoError(t, pub.Start(ctx, nil))
	require.NoError(t, pub.Open(ctx, nil))
	assert.True(t, pub.HasStarted())
	assert.True(t, pub.IsOpen())

	require.NoError(t, pub.Stop(ctx, nil))
	assert.False(t, pub.HasStarted())
	assert.False(t, pub.IsOpen())

	_, err := pub.Input(ctx, nil)
	assert.Error(t, err, "no command ran")
}

func TestLoadTools(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tools:
  - name: hello
    command: sh
    args: ["-c", "echo hi"]
  - command: ignored
`), 0644))

	tools, err := process.LoadTools(path)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, []string{"-c", "echo hi"}, tools["hello"].Args)

	missing, err := process.LoadTools(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestFactory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tools.json"),
		[]byte(`{"tools":[{"name":"probe","command":"true"}]}`), 0644))

	pub, err := process.Factory(map[string]any{"tools": "tools.json", "baseDir": dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"probe"}, pub.(*process.Publisher).Tools())

	_, err = process.Factory(map[string]any{"command": "rm"})
	assert.Error(t, err)
}

func TestNewFactory_Defaults(t *testing.T) {
	factory := process.NewFactory(process.WithTools(map[string]process.ToolConfig{
		"probe": {Name: "probe", Command: "true"},
	}))

	pub, err := factory(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"probe"}, pub.(*process.Publisher).Tools())
}
