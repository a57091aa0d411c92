package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/orchard/pkg/domain"
)

// Agent implements domain.Agent in memory. A method started with Action.Call reports
// itself running for a fixed number of Action.Call.IsRunning polls.
type Agent struct {
	mu sync.Mutex

	busyPolls int
	remaining map[string]int
	messages  []string
}

// NewAgent creates an agent whose calls stay running for busyPolls polls.
// A negative busyPolls keeps them running forever.
func NewAgent(busyPolls int) *Agent {
	return &Agent{busyPolls: busyPolls, remaining: make(map[string]int)}
}

// Message handles a named message.
func (a *Agent) Message(ctx context.Context, name string, payload any) (any, error) {
	method := fmt.Sprint(payload)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, name+":"+method)

	switch name {
	case domain.AgentMessageCall:
		a.remaining[method] = a.busyPolls
		return nil, nil
	case domain.AgentMessageCallIsRunning:
		left, ok := a.remaining[method]
		if !ok || left == 0 {
			return 0, nil
		}
		if left > 0 {
			a.remaining[method] = left - 1
		}
		return 1, nil
	}
	return nil, fmt.Errorf("agent: unknown message %q", name)
}

// Messages returns the received messages as "name:payload".
func (a *Agent) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}
