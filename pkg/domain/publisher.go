package domain

import (
	"context"
	"io"
)

// AgentPublisher is the publisher name that routes call actions to the agent channel.
const AgentPublisher = "Peach.Agent"

// Agent message names.
const (
	AgentMessageCall          = "Action.Call"
	AgentMessageCallIsRunning = "Action.Call.IsRunning"
)

// Publisher is a transport an action drives. The engine checks HasStarted and IsOpen
// and starts or opens the publisher itself before any operation that needs it.
type Publisher interface {
	Start(ctx context.Context, action *Action) error
	Stop(ctx context.Context, action *Action) error
	Open(ctx context.Context, action *Action) error
	Close(ctx context.Context, action *Action) error
	Accept(ctx context.Context, action *Action) error

	// Input returns the byte source the cracker reads the action's data model from.
	Input(ctx context.Context, action *Action) (io.Reader, error)
	Output(ctx context.Context, action *Action, data []byte) error

	Call(ctx context.Context, action *Action, method string, params []*ActionParameter) (any, error)
	GetProperty(ctx context.Context, action *Action, name string) (any, error)
	SetProperty(ctx context.Context, action *Action, name string, value any) error

	HasStarted() bool
	IsOpen() bool
}

// Agent is the out-of-band channel to the monitoring agents of a run.
type Agent interface {
	Message(ctx context.Context, name string, payload any) (any, error)
}
