package domain

import "fmt"

// State is a named, ordered sequence of actions.
type State struct {
	Name string

	actions []*Action
	model   *StateModel
}

// NewState creates a state holding actions in order.
func NewState(name string, actions ...*Action) *State {
	s := &State{Name: name}
	for _, a := range actions {
		s.Append(a)
	}
	return s
}

// Append adds an action at the end of the state.
func (s *State) Append(a *Action) {
	a.state = s
	s.actions = append(s.actions, a)
}

// Actions returns the actions in execution order.
func (s *State) Actions() []*Action {
	out := make([]*Action, len(s.actions))
	copy(out, s.actions)
	return out
}

// Action returns the action with the given name, or nil.
func (s *State) Action(name string) *Action {
	for _, a := range s.actions {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// StateModel returns the owning state model.
func (s *State) StateModel() *StateModel { return s.model }

// StateModel holds named states, the state a run starts in and the log of actions executed
// during the current run.
type StateModel struct {
	Name    string
	Initial string

	states  []*State
	history []*Action
}

// NewStateModel creates an empty state model starting at initial.
func NewStateModel(name, initial string) *StateModel {
	return &StateModel{Name: name, Initial: initial}
}

// AddState adds s. State names are unique within a model.
func (m *StateModel) AddState(s *State) error {
	if m.State(s.Name) != nil {
		return fmt.Errorf("%w: %q in state model %q", ErrDuplicateState, s.Name, m.Name)
	}
	s.model = m
	m.states = append(m.states, s)
	return nil
}

// State returns the state with the given name, or nil.
func (m *StateModel) State(name string) *State {
	for _, s := range m.states {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// States returns the states in insertion order.
func (m *StateModel) States() []*State {
	out := make([]*State, len(m.states))
	copy(out, m.states)
	return out
}

// InitialState resolves the state a run starts in.
func (m *StateModel) InitialState() (*State, error) {
	s := m.State(m.Initial)
	if s == nil {
		return nil, &StateNotFoundError{StateModel: m.Name, State: m.Initial}
	}
	return s, nil
}

// Actions returns every action of every state, in state then action order.
func (m *StateModel) Actions() []*Action {
	var out []*Action
	for _, s := range m.states {
		out = append(out, s.actions...)
	}
	return out
}

// RecordAction appends a to the history of the current run.
func (m *StateModel) RecordAction(a *Action) {
	m.history = append(m.history, a)
}

// History returns the actions executed during the current run, in order.
func (m *StateModel) History() []*Action {
	out := make([]*Action, len(m.history))
	copy(out, m.history)
	return out
}

// ResetHistory starts a new, empty history.
func (m *StateModel) ResetHistory() {
	m.history = nil
}
