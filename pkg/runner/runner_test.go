package runner_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/orchard/internal/runtime"
	"github.com/aretw0/orchard/pkg/adapters/memory"
	"github.com/aretw0/orchard/pkg/datamodel"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/ports"
	"github.com/aretw0/orchard/pkg/runner"
)

func output(name, text string) *domain.Action {
	a := domain.NewAction(name, domain.KindOutput)
	a.SetTemplate(datamodel.NewDataModel(name+"Model", datamodel.NewString("Text", text)))
	return a
}

func input(name string) *domain.Action {
	a := domain.NewAction(name, domain.KindInput)
	a.SetTemplate(datamodel.NewDataModel(name+"Model", datamodel.NewBlob("Data", nil)))
	return a
}

func setup(t *testing.T, opts domain.Options, actions ...*domain.Action) (*domain.Dom, *domain.Test, *memory.Publisher) {
	t.Helper()
	sm := domain.NewStateModel("Proto", "Init")
	require.NoError(t, sm.AddState(domain.NewState("Init", actions...)))

	dom := domain.NewDom("pit")
	require.NoError(t, dom.AddStateModel(sm))
	test := domain.NewTest("Default", sm)
	test.Options = opts
	pub := memory.NewPublisher()
	require.NoError(t, test.AddPublisher("tcp", pub))
	require.NoError(t, dom.AddTest(test))
	return dom, test, pub
}

func iterations(n int) domain.Options {
	o := domain.DefaultOptions()
	o.Iterations = n
	return o
}

// rejectFF fails softly on inputs starting with 0xFF.
var rejectFF = ports.CrackerFunc(func(_ context.Context, model *datamodel.DataModel, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(data) > 0 && data[0] == 0xFF {
		return &ports.CrackingFailure{Element: model.Name(), Err: errors.New("rejected")}
	}
	return nil
})

func TestRun_IteratesAndPersists(t *testing.T) {
	dom, test, pub := setup(t, iterations(3), output("Hello", "hi"))
	store := memory.NewStore()

	r := runner.New(runtime.NewEngine(), runner.WithStore(store))
	rec, err := r.Run(context.Background(), dom, test)
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusCompleted, rec.Status)
	assert.Equal(t, 3, rec.Iterations)
	assert.Zero(t, rec.SoftFailures)
	assert.Equal(t, []string{"Init.Hello"}, rec.History)
	assert.False(t, rec.FinishedAt.IsZero())
	assert.NotEmpty(t, rec.ID)

	assert.Len(t, pub.Outputs(), 3)
	assert.Equal(t, []string{
		"start", "open", "output", "close",
		"open", "output", "close",
		"open", "output", "close",
		"stop",
	}, pub.Ops())

	stored, err := store.Load(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, stored.Status)
	assert.Equal(t, 3, stored.Iterations)
}

func TestRun_IterationOverride(t *testing.T) {
	dom, test, pub := setup(t, iterations(10), output("Hello", "hi"))

	rec, err := runner.New(runtime.NewEngine(), runner.WithIterations(2)).Run(context.Background(), dom, test)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Iterations)
	assert.Len(t, pub.Outputs(), 2)
}

func TestRun_SoftFailuresDoNotEndTheRun(t *testing.T) {
	dom, test, pub := setup(t, iterations(3), input("Recv"), output("Ack", "ok"))
	pub.QueueInput([]byte{0x01})
	pub.QueueInput([]byte{0xFF})
	pub.QueueInput([]byte{0x02})

	engine := runtime.NewEngine(runtime.WithCracker(rejectFF))
	rec, err := runner.New(engine).Run(context.Background(), dom, test)
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusCompleted, rec.Status)
	assert.Equal(t, 3, rec.Iterations)
	assert.Equal(t, 1, rec.SoftFailures)
	assert.Len(t, pub.Outputs(), 2, "the failed iteration never reaches Ack")
}

func TestRun_StopOnSoftFailure(t *testing.T) {
	opts := iterations(3)
	opts.StopOnSoftFailure = true
	dom, test, pub := setup(t, opts, input("Recv"))
	pub.QueueInput([]byte{0x01})
	pub.QueueInput([]byte{0xFF})
	pub.QueueInput([]byte{0x02})

	engine := runtime.NewEngine(runtime.WithCracker(rejectFF))
	rec, err := runner.New(engine).Run(context.Background(), dom, test)
	require.Error(t, err)
	assert.True(t, domain.IsSoft(err))

	assert.Equal(t, domain.RunStatusFailed, rec.Status)
	assert.Equal(t, 2, rec.Iterations)
	assert.Equal(t, 1, rec.SoftFailures)
	assert.NotEmpty(t, rec.Error)
}

func TestRun_FatalErrorEndsTheRun(t *testing.T) {
	jump := domain.NewAction("Jump", domain.KindChangeState)
	jump.Ref = "Nowhere"
	dom, test, pub := setup(t, iterations(5), jump)

	rec, err := runner.New(runtime.NewEngine()).Run(context.Background(), dom, test)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	assert.Equal(t, domain.RunStatusFailed, rec.Status)
	assert.Equal(t, 1, rec.Iterations)
	assert.Empty(t, pub.Ops())
}

func TestRun_Cancelled(t *testing.T) {
	dom, test, _ := setup(t, iterations(3), output("Hello", "hi"))
	store := memory.NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := runner.New(runtime.NewEngine(), runner.WithStore(store)).Run(ctx, dom, test)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.RunStatusCancelled, rec.Status)
	assert.Zero(t, rec.Iterations)

	stored, err := store.Load(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCancelled, stored.Status)
}

func TestRun_AgentIsHandedToActions(t *testing.T) {
	call := domain.NewAction("Probe", domain.KindCall)
	call.Publisher = domain.AgentPublisher
	call.Method = "ScoopTheLogs"
	dom, test, _ := setup(t, iterations(1), call)

	agent := memory.NewAgent(0)
	engine := runtime.NewEngine(runtime.WithAgentPolling(time.Millisecond, time.Second))
	_, err := runner.New(engine, runner.WithAgent(agent)).Run(context.Background(), dom, test)
	require.NoError(t, err)
	assert.Equal(t, []string{
		domain.AgentMessageCall + ":ScoopTheLogs",
		domain.AgentMessageCallIsRunning + ":ScoopTheLogs",
	}, agent.Messages())
}

func TestRun_Metrics(t *testing.T) {
	dom, test, pub := setup(t, iterations(3), input("Recv"))
	pub.QueueInput([]byte{0x01})
	pub.QueueInput([]byte{0xFF})
	pub.QueueInput([]byte{0x02})

	m := runner.NewMetrics(prometheus.NewRegistry())
	engine := runtime.NewEngine(
		runtime.WithCracker(rejectFF),
		runtime.WithLifecycleHooks(m.Hooks(domain.LifecycleHooks{})),
	)
	_, err := runner.New(engine, runner.WithMetrics(m)).Run(context.Background(), dom, test)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Iterations.WithLabelValues("Default", runner.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Iterations.WithLabelValues("Default", runner.OutcomeSoft)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("Default", string(domain.RunStatusCompleted))))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Actions.WithLabelValues(string(domain.KindInput), "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues(string(domain.KindInput), runner.OutcomeSoft)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StateVisits.WithLabelValues("Proto", "Init")))
}

type fakeLocker struct {
	mu       sync.Mutex
	locked   []string
	released int
}

func (l *fakeLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = append(l.locked, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

func TestRun_DistributedLock(t *testing.T) {
	dom, test, _ := setup(t, iterations(1), output("Hello", "hi"))
	locker := &fakeLocker{}

	_, err := runner.New(runtime.NewEngine(), runner.WithLocker(locker, time.Minute)).Run(context.Background(), dom, test)
	require.NoError(t, err)
	assert.Equal(t, []string{"orchard:test:Default"}, locker.locked)
	assert.Equal(t, 1, locker.released)
}

func TestRun_LockFailure(t *testing.T) {
	dom, test, pub := setup(t, iterations(1), output("Hello", "hi"))
	boom := errors.New("redis down")
	locker := lockerFunc(func(context.Context, string, time.Duration) (ports.UnlockFunc, error) {
		return nil, boom
	})

	rec, err := runner.New(runtime.NewEngine(), runner.WithLocker(locker, 0)).Run(context.Background(), dom, test)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, rec)
	assert.Empty(t, pub.Ops())
}

type lockerFunc func(context.Context, string, time.Duration) (ports.UnlockFunc, error)

func (f lockerFunc) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	return f(ctx, key, ttl)
}

func TestRun_NilTest(t *testing.T) {
	_, err := runner.New(runtime.NewEngine()).Run(context.Background(), domain.NewDom("pit"), nil)
	assert.Error(t, err)
}

func TestRun_LogsRunOutcome(t *testing.T) {
	dom, test, _ := setup(t, iterations(1), output("Hello", "hi"))
	var buf bytes.Buffer
	logger := newTextLogger(&buf)

	_, err := runner.New(runtime.NewEngine(), runner.WithLogger(logger)).Run(context.Background(), dom, test)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "run finished")
	assert.Contains(t, buf.String(), "status=completed")
}

func newTextLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, nil))
}
