package domain

import (
	"fmt"
	"time"
)

// Default run options.
const (
	DefaultIterations        = 1
	DefaultAgentCallTimeout  = 10 * time.Second
	DefaultAgentPollInterval = 200 * time.Millisecond
)

// Options are the cross-cutting settings of a test.
type Options struct {
	Iterations        int           `json:"iterations" yaml:"iterations" mapstructure:"iterations"`
	AgentCallTimeout  time.Duration `json:"agent_call_timeout" yaml:"agent_call_timeout" mapstructure:"agent_call_timeout"`
	AgentPollInterval time.Duration `json:"agent_poll_interval" yaml:"agent_poll_interval" mapstructure:"agent_poll_interval"`
	StopOnSoftFailure bool          `json:"stop_on_soft_failure" yaml:"stop_on_soft_failure" mapstructure:"stop_on_soft_failure"`
}

// DefaultOptions returns the options used when a test sets none.
func DefaultOptions() Options {
	return Options{
		Iterations:        DefaultIterations,
		AgentCallTimeout:  DefaultAgentCallTimeout,
		AgentPollInterval: DefaultAgentPollInterval,
	}
}

// NamedPublisher is a publisher bound to a test under a name.
type NamedPublisher struct {
	Name      string
	Publisher Publisher
}

// Test binds a state model to ordered, named publishers. The first publisher is the default.
type Test struct {
	Name       string
	StateModel *StateModel
	Agents     []string
	Options    Options

	publishers []NamedPublisher
}

// NewTest creates a test with default options.
func NewTest(name string, sm *StateModel) *Test {
	return &Test{Name: name, StateModel: sm, Options: DefaultOptions()}
}

// AddPublisher binds p under name. Names are unique within a test.
func (t *Test) AddPublisher(name string, p Publisher) error {
	for _, np := range t.publishers {
		if np.Name == name {
			return fmt.Errorf("test %q: publisher %q already bound", t.Name, name)
		}
	}
	t.publishers = append(t.publishers, NamedPublisher{Name: name, Publisher: p})
	return nil
}

// Publishers returns the bound publishers in order.
func (t *Test) Publishers() []NamedPublisher {
	out := make([]NamedPublisher, len(t.publishers))
	copy(out, t.publishers)
	return out
}

// ResolvePublisher returns the publisher an action addresses and the name it resolved to.
// An empty name, or the agent channel name, selects the first publisher.
func (t *Test) ResolvePublisher(action *Action) (Publisher, string, error) {
	name := action.Publisher
	if name == "" || name == AgentPublisher {
		if len(t.publishers) == 0 {
			return nil, "", &PublisherNotFoundError{Action: action.Name, Publisher: name}
		}
		return t.publishers[0].Publisher, t.publishers[0].Name, nil
	}
	for _, np := range t.publishers {
		if np.Name == name {
			return np.Publisher, np.Name, nil
		}
	}
	return nil, "", &PublisherNotFoundError{Action: action.Name, Publisher: name}
}
