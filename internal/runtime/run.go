package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/orchard/pkg/domain"
)

// RunStateModel runs the state model of rc.Test once: it clears the history, resets every
// action, then executes actions from the initial state until the last action of the current
// state completes. A changeState action moves execution to the first action of its target.
// Errors are returned unchanged; soft failures are told apart with domain.IsSoft.
func (e *Engine) RunStateModel(ctx context.Context, rc *domain.RunContext) error {
	if rc == nil || rc.Test == nil || rc.Test.StateModel == nil {
		return fmt.Errorf("run context has no state model")
	}
	sm := rc.Test.StateModel

	sm.ResetHistory()
	for _, a := range sm.Actions() {
		if err := a.Reset(); err != nil {
			return err
		}
	}

	state, err := sm.InitialState()
	if err != nil {
		return err
	}

	logger := e.logger.With("state_model", sm.Name, "iteration", rc.Iteration)
	if rc.RunID != "" {
		logger = logger.With("run_id", rc.RunID)
	}

	for state != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.enterState(ctx, rc, state)
		logger.DebugContext(ctx, "entered state", "state", state.Name)

		next, err := e.runState(ctx, rc, state)
		e.leaveState(ctx, rc, state)
		if err != nil {
			return err
		}
		state = next
	}
	return nil
}

// runState executes the actions of state in order and returns the transfer target, if any.
func (e *Engine) runState(ctx context.Context, rc *domain.RunContext, state *domain.State) (*domain.State, error) {
	for _, action := range state.Actions() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := e.ExecuteAction(ctx, rc, action)
		if err != nil {
			return nil, err
		}
		if out.Transfer != nil {
			return out.Transfer, nil
		}
	}
	return nil, nil
}

func (e *Engine) enterState(ctx context.Context, rc *domain.RunContext, state *domain.State) {
	if e.hooks.OnStateEnter != nil {
		e.hooks.OnStateEnter(ctx, stateEvent(rc, state))
	}
}

func (e *Engine) leaveState(ctx context.Context, rc *domain.RunContext, state *domain.State) {
	if e.hooks.OnStateLeave != nil {
		e.hooks.OnStateLeave(ctx, stateEvent(rc, state))
	}
}

func stateEvent(rc *domain.RunContext, state *domain.State) *domain.StateEvent {
	ev := &domain.StateEvent{
		Timestamp: time.Now(),
		RunID:     rc.RunID,
		Iteration: rc.Iteration,
		State:     state.Name,
	}
	if sm := state.StateModel(); sm != nil {
		ev.StateModel = sm.Name
	}
	return ev
}
