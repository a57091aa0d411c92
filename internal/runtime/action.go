package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/orchard/pkg/datamodel"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/ports"
	"github.com/aretw0/orchard/pkg/script"
	"github.com/spf13/cast"
)

// Outcome is what an action asks of the run loop besides its error.
// A non-nil Transfer moves execution to the first action of that state.
type Outcome struct {
	Transfer *domain.State
}

// ExecuteAction runs one action: guard, publisher resolution, starting hook, dispatch by
// kind and, on every exit path, the finished hook.
func (e *Engine) ExecuteAction(ctx context.Context, rc *domain.RunContext, action *domain.Action) (out Outcome, err error) {
	event := e.actionEvent(rc, action)
	vars := e.vars(rc, action)

	started := false
	defer func() {
		e.finish(ctx, action, vars, event, started, &err)
	}()

	run, err := e.guard(ctx, action, vars)
	if err != nil {
		return Outcome{}, err
	}
	if !run {
		e.logger.DebugContext(ctx, "action skipped by guard", "action", action.Name, "when", action.When)
		event.Skipped = true
		return Outcome{}, nil
	}

	pub, pubName, err := rc.Test.ResolvePublisher(action)
	if err != nil {
		return Outcome{}, err
	}
	event.Publisher = pubName

	started = true
	if action.OnStart != "" {
		if _, err := e.evaluator.Evaluate(ctx, action.OnStart, vars); err != nil {
			return Outcome{}, fmt.Errorf("action %q onStart: %w", action.Name, err)
		}
	}
	if e.hooks.OnActionStarting != nil {
		e.hooks.OnActionStarting(ctx, event)
	}

	e.logger.DebugContext(ctx, "executing action",
		"action", action.Name, "kind", action.Kind, "publisher", pubName)

	return e.dispatch(ctx, rc, action, pub)
}

func (e *Engine) dispatch(ctx context.Context, rc *domain.RunContext, action *domain.Action, pub domain.Publisher) (Outcome, error) {
	switch action.Kind {
	case domain.KindStart:
		return Outcome{}, pub.Start(ctx, action)

	case domain.KindStop:
		return Outcome{}, pub.Stop(ctx, action)

	case domain.KindOpen, domain.KindConnect:
		if err := ensureStarted(ctx, pub, action); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, pub.Open(ctx, action)

	case domain.KindClose:
		if err := ensureStarted(ctx, pub, action); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, pub.Close(ctx, action)

	case domain.KindAccept:
		if err := ensureOpen(ctx, pub, action); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, pub.Accept(ctx, action)

	case domain.KindInput:
		return Outcome{}, e.input(ctx, action, pub)

	case domain.KindOutput:
		return Outcome{}, e.output(ctx, action, pub)

	case domain.KindCall:
		return Outcome{}, e.call(ctx, rc, action, pub)

	case domain.KindGetProperty:
		return Outcome{}, e.getProperty(ctx, action, pub)

	case domain.KindSetProperty:
		return Outcome{}, e.setProperty(ctx, action, pub)

	case domain.KindChangeState:
		return e.changeState(ctx, action)

	case domain.KindSlurp:
		return Outcome{}, e.slurp(ctx, rc, action)
	}
	return Outcome{}, &domain.UnknownActionKindError{Action: action.Name, Kind: action.Kind}
}

func (e *Engine) guard(ctx context.Context, action *domain.Action, vars map[string]any) (bool, error) {
	if action.When == "" {
		return true, nil
	}
	v, err := e.evaluator.Evaluate(ctx, action.When, vars)
	if err != nil {
		return false, fmt.Errorf("action %q when: %w", action.Name, err)
	}
	if _, ok := v.(bool); !ok {
		e.logger.DebugContext(ctx, "guard is not boolean", "action", action.Name, "value", v)
	}
	return script.IsTrue(v), nil
}

// finish runs the onComplete expression (only when the starting hook ran) and then the
// finished observers, once.
func (e *Engine) finish(ctx context.Context, action *domain.Action, vars map[string]any, event *domain.ActionEvent, started bool, errp *error) {
	if started && action.OnComplete != "" {
		if _, err := e.evaluator.Evaluate(ctx, action.OnComplete, vars); err != nil && *errp == nil {
			*errp = fmt.Errorf("action %q onComplete: %w", action.Name, err)
		}
	}

	event.Err = *errp
	if *errp != nil {
		e.logger.DebugContext(ctx, "action failed", "action", action.Name, "error", *errp)
	}
	if e.hooks.OnActionFinished != nil {
		e.hooks.OnActionFinished(ctx, event)
	}
}

func ensureStarted(ctx context.Context, pub domain.Publisher, action *domain.Action) error {
	if pub.HasStarted() {
		return nil
	}
	return pub.Start(ctx, action)
}

func ensureOpen(ctx context.Context, pub domain.Publisher, action *domain.Action) error {
	if err := ensureStarted(ctx, pub, action); err != nil {
		return err
	}
	if pub.IsOpen() {
		return nil
	}
	return pub.Open(ctx, action)
}

func record(action *domain.Action) {
	if sm := action.StateModel(); sm != nil {
		sm.RecordAction(action)
	}
}

func (e *Engine) input(ctx context.Context, action *domain.Action, pub domain.Publisher) error {
	if err := ensureOpen(ctx, pub, action); err != nil {
		return err
	}
	if e.cracker == nil {
		return fmt.Errorf("action %q: no cracker configured", action.Name)
	}
	model := action.Model()
	if model == nil {
		return fmt.Errorf("action %q: input requires a data model", action.Name)
	}

	r, err := pub.Input(ctx, action)
	if err != nil {
		return err
	}
	if err := e.cracker.Crack(ctx, model, r); err != nil {
		if errors.Is(err, ports.ErrCrackingFailure) {
			return &domain.SoftError{Action: action.Name, Err: err}
		}
		return err
	}
	record(action)
	return nil
}

func (e *Engine) output(ctx context.Context, action *domain.Action, pub domain.Publisher) error {
	if err := ensureOpen(ctx, pub, action); err != nil {
		return err
	}
	model := action.Model()
	if model == nil {
		return fmt.Errorf("action %q: output requires a data model", action.Name)
	}

	data, err := model.Render()
	if err != nil {
		return fmt.Errorf("action %q: %w", action.Name, err)
	}
	if err := pub.Output(ctx, action, data); err != nil {
		return err
	}
	record(action)
	return nil
}

func (e *Engine) call(ctx context.Context, rc *domain.RunContext, action *domain.Action, pub domain.Publisher) error {
	if action.Publisher == domain.AgentPublisher {
		// The resolved default publisher is started either way.
		if err := ensureStarted(ctx, pub, action); err != nil {
			return err
		}
		if err := e.callAgent(ctx, rc, action); err != nil {
			return err
		}
		record(action)
		return nil
	}

	if err := ensureStarted(ctx, pub, action); err != nil {
		return err
	}
	result, err := pub.Call(ctx, action, action.Method, action.Parameters)
	if err != nil {
		return err
	}
	if action.Result != nil && action.Result.Model() != nil && result != nil {
		if err := setValue(action.Result.Model(), result); err != nil {
			return fmt.Errorf("action %q result: %w", action.Name, err)
		}
	}
	record(action)
	return nil
}

// callAgent asks the agents to run the method, then polls until they report it is no
// longer running or the timeout elapses. The timeout is not an error.
func (e *Engine) callAgent(ctx context.Context, rc *domain.RunContext, action *domain.Action) error {
	if rc.Agent == nil {
		return fmt.Errorf("action %q: no agent channel configured", action.Name)
	}
	if _, err := rc.Agent.Message(ctx, domain.AgentMessageCall, action.Method); err != nil {
		return fmt.Errorf("action %q: %s: %w", action.Name, domain.AgentMessageCall, err)
	}

	interval, timeout := e.agentPolling(rc.Test)
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ret, err := rc.Agent.Message(ctx, domain.AgentMessageCallIsRunning, action.Method)
		if err != nil {
			return fmt.Errorf("action %q: %s: %w", action.Name, domain.AgentMessageCallIsRunning, err)
		}
		if callFinished(ret) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			e.logger.WarnContext(ctx, "agent call still running after timeout",
				"action", action.Name, "method", action.Method, "timeout", timeout)
			return nil
		case <-ticker.C:
		}
	}
}

// callFinished reports whether an IsRunning reply is the integer 0. A nil or non-numeric
// reply means the agent has not answered yet.
func callFinished(ret any) bool {
	if ret == nil {
		return false
	}
	n, err := cast.ToIntE(ret)
	return err == nil && n == 0
}

func (e *Engine) getProperty(ctx context.Context, action *domain.Action, pub domain.Publisher) error {
	if err := ensureStarted(ctx, pub, action); err != nil {
		return err
	}
	model := action.Model()
	if model == nil {
		return fmt.Errorf("action %q: getProperty requires a data model", action.Name)
	}
	v, err := pub.GetProperty(ctx, action, action.Property)
	if err != nil {
		return err
	}
	if err := setValue(model, v); err != nil {
		return fmt.Errorf("action %q: %w", action.Name, err)
	}
	record(action)
	return nil
}

func (e *Engine) setProperty(ctx context.Context, action *domain.Action, pub domain.Publisher) error {
	if err := ensureStarted(ctx, pub, action); err != nil {
		return err
	}
	model := action.Model()
	if model == nil {
		return fmt.Errorf("action %q: setProperty requires a data model", action.Name)
	}
	data, err := model.Render()
	if err != nil {
		return fmt.Errorf("action %q: %w", action.Name, err)
	}
	if err := pub.SetProperty(ctx, action, action.Property, data); err != nil {
		return err
	}
	record(action)
	return nil
}

// changeState never returns the transfer as an error: the run loop reads it from the Outcome.
func (e *Engine) changeState(ctx context.Context, action *domain.Action) (Outcome, error) {
	sm := action.StateModel()
	if sm == nil {
		return Outcome{}, &domain.StateNotFoundError{Action: action.Name, State: action.Ref}
	}
	target := sm.State(action.Ref)
	if target == nil {
		return Outcome{}, &domain.StateNotFoundError{Action: action.Name, StateModel: sm.Name, State: action.Ref}
	}
	e.logger.DebugContext(ctx, "changing state", "action", action.Name, "state", target.Name)
	return Outcome{Transfer: target}, nil
}

func (e *Engine) slurp(ctx context.Context, rc *domain.RunContext, action *domain.Action) error {
	values, err := rc.Dom.Select(action.ValueXpath)
	if err != nil {
		return &domain.SlurpError{Action: action.Name, Selector: action.ValueXpath, Err: err}
	}
	if len(values) != 1 {
		return &domain.SlurpError{Action: action.Name, Selector: action.ValueXpath, Matches: len(values)}
	}
	value := values[0]

	targets, err := rc.Dom.Select(action.SetXpath)
	if err != nil {
		return &domain.SlurpError{Action: action.Name, Selector: action.SetXpath, Err: err}
	}
	if len(targets) == 0 {
		return &domain.SlurpError{Action: action.Name, Selector: action.SetXpath}
	}

	for _, target := range targets {
		e.logger.DebugContext(ctx, "slurp", "action", action.Name, "from", value.FullName(), "to", target.FullName())
		if err := target.SetDefaultValue(value.DefaultValue()); err != nil {
			return &domain.SlurpError{Action: action.Name, Selector: action.SetXpath, Matches: len(targets), Err: err}
		}
	}
	return nil
}

// setValue stores a publisher-provided value into a model: directly into its only child
// when it has exactly one, else as the model's own value.
func setValue(model *datamodel.DataModel, v any) error {
	if children := model.Children(); len(children) == 1 {
		return children[0].SetDefaultValue(v)
	}
	switch v.(type) {
	case []byte, string, *datamodel.BitStream:
		return model.SetDefaultValue(v)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Errorf("cannot store %T in %q: %w", v, model.Name(), err)
	}
	return model.SetDefaultValue(s)
}

func (e *Engine) vars(rc *domain.RunContext, action *domain.Action) map[string]any {
	vars := map[string]any{
		"action": action,
		"Action": action,
		"self":   action,
	}
	if s := action.State(); s != nil {
		vars["state"] = s
		vars["State"] = s
	}
	if sm := action.StateModel(); sm != nil {
		vars["stateModel"] = sm
		vars["StateModel"] = sm
	}
	if rc != nil {
		vars["test"] = rc.Test
		vars["Test"] = rc.Test
		vars["iteration"] = rc.Iteration
	}
	return vars
}

func (e *Engine) actionEvent(rc *domain.RunContext, action *domain.Action) *domain.ActionEvent {
	ev := &domain.ActionEvent{
		Timestamp: time.Now(),
		Action:    action.Name,
		Kind:      action.Kind,
		Publisher: action.Publisher,
	}
	if rc != nil {
		ev.RunID = rc.RunID
		ev.Iteration = rc.Iteration
	}
	if s := action.State(); s != nil {
		ev.State = s.Name
	}
	if sm := action.StateModel(); sm != nil {
		ev.StateModel = sm.Name
	}
	return ev
}
