package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/orchard/pkg/domain"
)

// Publisher implements domain.Publisher in memory. It records every operation as
// "op:Action" in call order, keeps every output, and serves queued inputs.
// Safe for concurrent use.
type Publisher struct {
	mu sync.Mutex

	started bool
	open    bool

	calls      []string
	outputs    [][]byte
	inputs     [][]byte
	properties map[string]any
	results    map[string]any
	failures   map[string]error
}

// NewPublisher creates a stopped, closed publisher.
func NewPublisher() *Publisher {
	return &Publisher{
		properties: make(map[string]any),
		results:    make(map[string]any),
		failures:   make(map[string]error),
	}
}

// QueueInput appends data served by the next Input call.
func (p *Publisher) QueueInput(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputs = append(p.inputs, append([]byte(nil), data...))
}

// SetResult sets the value returned by Call for method.
func (p *Publisher) SetResult(method string, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[method] = v
}

// PutProperty stores a property served to getProperty actions.
func (p *Publisher) PutProperty(name string, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.properties[name] = v
}

// Property returns a property, including those written by setProperty actions.
func (p *Publisher) Property(name string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.properties[name]
	return v, ok
}

// Fail makes every later invocation of op ("start", "output", ...) return err.
func (p *Publisher) Fail(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = err
}

// Calls returns the recorded operations.
func (p *Publisher) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Ops returns the recorded operations without action names.
func (p *Publisher) Ops() []string {
	calls := p.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i], _, _ = strings.Cut(c, ":")
	}
	return ops
}

// Outputs returns every payload written by Output.
func (p *Publisher) Outputs() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.outputs))
	copy(out, p.outputs)
	return out
}

func (p *Publisher) record(op string, action *domain.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := ""
	if action != nil {
		name = action.Name
	}
	p.calls = append(p.calls, op+":"+name)
	return p.failures[op]
}

// Start marks the publisher started.
func (p *Publisher) Start(ctx context.Context, action *domain.Action) error {
	if err := p.record("start", action); err != nil {
		return err
	}
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	return nil
}

// Stop marks the publisher stopped and closed.
func (p *Publisher) Stop(ctx context.Context, action *domain.Action) error {
	if err := p.record("stop", action); err != nil {
		return err
	}
	p.mu.Lock()
	p.started, p.open = false, false
	p.mu.Unlock()
	return nil
}

// Open marks the publisher open.
func (p *Publisher) Open(ctx context.Context, action *domain.Action) error {
	if err := p.record("open", action); err != nil {
		return err
	}
	p.mu.Lock()
	p.open = true
	p.mu.Unlock()
	return nil
}

// Close marks the publisher closed.
func (p *Publisher) Close(ctx context.Context, action *domain.Action) error {
	if err := p.record("close", action); err != nil {
		return err
	}
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
	return nil
}

// Accept records the call.
func (p *Publisher) Accept(ctx context.Context, action *domain.Action) error {
	return p.record("accept", action)
}

// Input serves the oldest queued input, or io.EOF when none is queued.
func (p *Publisher) Input(ctx context.Context, action *domain.Action) (io.Reader, error) {
	if err := p.record("input", action); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.inputs) == 0 {
		return nil, io.EOF
	}
	data := p.inputs[0]
	p.inputs = p.inputs[1:]
	return bytes.NewReader(data), nil
}

// Output keeps a copy of data.
func (p *Publisher) Output(ctx context.Context, action *domain.Action, data []byte) error {
	if err := p.record("output", action); err != nil {
		return err
	}
	p.mu.Lock()
	p.outputs = append(p.outputs, append([]byte(nil), data...))
	p.mu.Unlock()
	return nil
}

// Call returns the result set for method, or nil.
func (p *Publisher) Call(ctx context.Context, action *domain.Action, method string, params []*domain.ActionParameter) (any, error) {
	if err := p.record("call", action); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.results[method], nil
}

// GetProperty returns a stored property.
func (p *Publisher) GetProperty(ctx context.Context, action *domain.Action, name string) (any, error) {
	if err := p.record("getProperty", action); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.properties[name]
	if !ok {
		return nil, fmt.Errorf("property %q not set", name)
	}
	return v, nil
}

// SetProperty stores a property.
func (p *Publisher) SetProperty(ctx context.Context, action *domain.Action, name string, value any) error {
	if err := p.record("setProperty", action); err != nil {
		return err
	}
	p.mu.Lock()
	p.properties[name] = value
	p.mu.Unlock()
	return nil
}

// HasStarted reports whether Start ran since the last Stop.
func (p *Publisher) HasStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// IsOpen reports whether Open ran since the last Close or Stop.
func (p *Publisher) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Factory builds a publisher for the "memory" class. Every output is kept in memory,
// which makes the class useful for dry runs of a pit. It takes no parameters.
func Factory(params map[string]any) (domain.Publisher, error) {
	if len(params) > 0 {
		return nil, fmt.Errorf("memory publisher takes no parameters")
	}
	return NewPublisher(), nil
}
