package domain

// RunContext is created once per test execution and passed to every action of it.
type RunContext struct {
	Dom   *Dom
	Agent Agent
	Test  *Test

	RunID     string
	Iteration int
}

// NewRunContext creates a context for running test from dom.
func NewRunContext(dom *Dom, test *Test, agent Agent) *RunContext {
	return &RunContext{Dom: dom, Test: test, Agent: agent}
}
