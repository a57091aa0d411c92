package dsl

import (
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/pit"
)

// StateModelBuilder provides a fluent API for configuring a state model.
type StateModelBuilder struct {
	name    string
	initial string
	states  []*StateBuilder
}

// State adds a state. If the state already exists, it returns the existing builder.
func (sm *StateModelBuilder) State(name string) *StateBuilder {
	for _, s := range sm.states {
		if s.name == name {
			return s
		}
	}
	s := &StateBuilder{name: name}
	sm.states = append(sm.states, s)
	return s
}

func (sm *StateModelBuilder) build() pit.StateModelSpec {
	out := pit.StateModelSpec{Name: sm.name, Initial: sm.initial}
	for _, s := range sm.states {
		out.States = append(out.States, pit.StateSpec{Name: s.name, Actions: s.actions})
	}
	return out
}

// StateBuilder provides a fluent API for appending actions to a state.
// Modifiers such as When or Publisher apply to the last action added.
type StateBuilder struct {
	name    string
	actions []pit.ActionSpec
}

func (s *StateBuilder) add(a pit.ActionSpec) *StateBuilder {
	s.actions = append(s.actions, a)
	return s
}

func (s *StateBuilder) last() *pit.ActionSpec {
	if len(s.actions) == 0 {
		return nil
	}
	return &s.actions[len(s.actions)-1]
}

// Start adds a start action.
func (s *StateBuilder) Start(name string) *StateBuilder {
	return s.add(pit.ActionSpec{Name: name, Type: string(domain.KindStart)})
}

// Stop adds a stop action.
func (s *StateBuilder) Stop(name string) *StateBuilder {
	return s.add(pit.ActionSpec{Name: name, Type: string(domain.KindStop)})
}

// Open adds an open action.
func (s *StateBuilder) Open(name string) *StateBuilder {
	return s.add(pit.ActionSpec{Name: name, Type: string(domain.KindOpen)})
}

// Close adds a close action.
func (s *StateBuilder) Close(name string) *StateBuilder {
	return s.add(pit.ActionSpec{Name: name, Type: string(domain.KindClose)})
}

// Accept adds an accept action.
func (s *StateBuilder) Accept(name string) *StateBuilder {
	return s.add(pit.ActionSpec{Name: name, Type: string(domain.KindAccept)})
}

// Output adds an action sending dataModel.
func (s *StateBuilder) Output(name, dataModel string) *StateBuilder {
	return s.add(pit.ActionSpec{Name: name, Type: string(domain.KindOutput), DataModel: dataModel})
}

// Input adds an action receiving into dataModel.
func (s *StateBuilder) Input(name, dataModel string) *StateBuilder {
	return s.add(pit.ActionSpec{Name: name, Type: string(domain.KindInput), DataModel: dataModel})
}

// Call adds an action invoking method on the publisher.
func (s *StateBuilder) Call(name, method string) *StateBuilder {
	return s.add(pit.ActionSpec{Name: name, Type: string(domain.KindCall), Method: method})
}

// GetProperty adds an action reading property into dataModel.
func (s *StateBuilder) GetProperty(name, property, dataModel string) *StateBuilder {
	return s.add(pit.ActionSpec{Name: name, Type: string(domain.KindGetProperty), Property: property, DataModel: dataModel})
}

// SetProperty adds an action writing dataModel to property.
func (s *StateBuilder) SetProperty(name, property, dataModel string) *StateBuilder {
	return s.add(pit.ActionSpec{Name: name, Type: string(domain.KindSetProperty), Property: property, DataModel: dataModel})
}

// ChangeState adds an action moving execution to target.
func (s *StateBuilder) ChangeState(name, target string) *StateBuilder {
	return s.add(pit.ActionSpec{Name: name, Type: string(domain.KindChangeState), Ref: target})
}

// Slurp adds an action copying the element selected by valueXpath to those selected by setXpath.
func (s *StateBuilder) Slurp(name, valueXpath, setXpath string) *StateBuilder {
	return s.add(pit.ActionSpec{Name: name, Type: string(domain.KindSlurp), ValueXpath: valueXpath, SetXpath: setXpath})
}

// When sets the guard of the last action.
func (s *StateBuilder) When(expression string) *StateBuilder {
	if a := s.last(); a != nil {
		a.When = expression
	}
	return s
}

// Publisher routes the last action to a named publisher.
func (s *StateBuilder) Publisher(name string) *StateBuilder {
	if a := s.last(); a != nil {
		a.Publisher = name
	}
	return s
}

// OnStart sets the expression evaluated before the last action runs.
func (s *StateBuilder) OnStart(expression string) *StateBuilder {
	if a := s.last(); a != nil {
		a.OnStart = expression
	}
	return s
}

// OnComplete sets the expression evaluated after the last action runs.
func (s *StateBuilder) OnComplete(expression string) *StateBuilder {
	if a := s.last(); a != nil {
		a.OnComplete = expression
	}
	return s
}

// Field overrides an element of the last action's data model on every reset.
func (s *StateBuilder) Field(path, value string) *StateBuilder {
	if a := s.last(); a != nil {
		if a.Data == nil {
			a.Data = &pit.DataSpec{Name: a.Name}
		}
		if a.Data.Fields == nil {
			a.Data.Fields = make(map[string]string)
		}
		a.Data.Fields[path] = value
	}
	return s
}

// Param appends an input parameter to the last call action.
func (s *StateBuilder) Param(name, dataModel string) *StateBuilder {
	if a := s.last(); a != nil {
		a.Params = append(a.Params, pit.ParamSpec{Name: name, DataModel: dataModel})
	}
	return s
}

// Result stores the last call's return value into dataModel.
func (s *StateBuilder) Result(dataModel string) *StateBuilder {
	if a := s.last(); a != nil {
		a.Result = dataModel
	}
	return s
}

// TestBuilder provides a fluent API for configuring a test.
type TestBuilder struct {
	spec pit.TestSpec
}

// Publisher binds a publisher class under name. The first one is the default.
func (t *TestBuilder) Publisher(name, class string, params map[string]any) *TestBuilder {
	t.spec.Publishers = append(t.spec.Publishers, pit.PublisherSpec{Name: name, Class: class, Params: params})
	return t
}

// Agents declares the agents of the test.
func (t *TestBuilder) Agents(names ...string) *TestBuilder {
	t.spec.Agents = append(t.spec.Agents, names...)
	return t
}

// Iterations sets how many times the state model runs.
func (t *TestBuilder) Iterations(n int) *TestBuilder {
	t.spec.Options.Iterations = n
	return t
}

// StopOnSoftFailure ends the run at the first soft failure.
func (t *TestBuilder) StopOnSoftFailure() *TestBuilder {
	t.spec.Options.StopOnSoftFailure = true
	return t
}
