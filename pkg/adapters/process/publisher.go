package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"

	"github.com/aretw0/orchard/pkg/domain"
)

// DefaultWaitDelay is how long a cancelled command gets to exit after the interrupt
// before it is killed.
const DefaultWaitDelay = 5 * time.Second

// EnvPrefix prefixes the environment variables that carry call parameters.
const EnvPrefix = "ORCHARD_PARAM_"

var envUnsafe = regexp.MustCompile(`[^A-Z0-9_]`)

// Config holds the publisher parameters as written in a pit.
type Config struct {
	// Tools is the path of a tools.yaml (or .json) listing the commands call actions may run.
	Tools   string `mapstructure:"tools"`
	BaseDir string `mapstructure:"baseDir"`
}

// Publisher runs allow-listed commands for call actions. The payload of the last output
// action is piped to the next command's stdin, and the stdout of the last command is
// served to input actions. Parameters reach the command as ORCHARD_PARAM_<NAME>
// environment variables, never as arguments.
type Publisher struct {
	mu sync.Mutex

	tools     map[string]ToolConfig
	baseDir   string
	waitDelay time.Duration

	started bool
	open    bool
	pending []byte
	last    []byte
	exit    int
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithTools populates the allow-list from a loaded config.
func WithTools(tools map[string]ToolConfig) Option {
	return func(p *Publisher) {
		for name, tool := range tools {
			p.tools[name] = tool
		}
	}
}

// WithBaseDir sets the working directory for executed commands.
func WithBaseDir(dir string) Option {
	return func(p *Publisher) {
		p.baseDir = dir
	}
}

// WithWaitDelay sets the grace period between interrupt and kill on cancellation.
func WithWaitDelay(d time.Duration) Option {
	return func(p *Publisher) {
		p.waitDelay = d
	}
}

// NewPublisher creates a process publisher.
func NewPublisher(opts ...Option) *Publisher {
	p := &Publisher{
		tools:     make(map[string]ToolConfig),
		waitDelay: DefaultWaitDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Factory builds a publisher from pit parameters. It is registered as the "process" class.
// A relative tools path is resolved against baseDir.
func Factory(params map[string]any) (domain.Publisher, error) {
	return NewFactory()(params)
}

// NewFactory returns a Factory whose publishers start from defaults; pit parameters are
// applied on top of them.
func NewFactory(defaults ...Option) func(map[string]any) (domain.Publisher, error) {
	return func(params map[string]any) (domain.Publisher, error) {
		var cfg Config
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(params); err != nil {
			return nil, fmt.Errorf("process publisher: %w", err)
		}

		opts := append([]Option(nil), defaults...)
		if cfg.BaseDir != "" {
			opts = append(opts, WithBaseDir(cfg.BaseDir))
		}
		if cfg.Tools != "" {
			path := cfg.Tools
			if !filepath.IsAbs(path) && cfg.BaseDir != "" {
				path = filepath.Join(cfg.BaseDir, path)
			}
			tools, err := LoadTools(path)
			if err != nil {
				return nil, fmt.Errorf("process publisher: %w", err)
			}
			opts = append(opts, WithTools(tools))
		}
		return NewPublisher(opts...), nil
	}
}

// Register adds a trusted command to the allow-list.
func (p *Publisher) Register(name, command string, args ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tools[name] = ToolConfig{Name: name, Command: command, Args: args}
}

// Tools returns the registered tool names in lexical order.
func (p *Publisher) Tools() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.tools))
	for name := range p.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start marks the publisher started.
func (p *Publisher) Start(ctx context.Context, action *domain.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = true
	return nil
}

// Stop marks the publisher stopped and drops buffered data.
func (p *Publisher) Stop(ctx context.Context, action *domain.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started, p.open = false, false
	p.pending, p.last = nil, nil
	return nil
}

// Open marks the publisher open.
func (p *Publisher) Open(ctx context.Context, action *domain.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = true
	return nil
}

// Close marks the publisher closed and drops the pending stdin payload.
func (p *Publisher) Close(ctx context.Context, action *domain.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	p.pending = nil
	return nil
}

// Accept is a no-op.
func (p *Publisher) Accept(ctx context.Context, action *domain.Action) error {
	return nil
}

// Input serves the stdout of the last command.
func (p *Publisher) Input(ctx context.Context, action *domain.Action) (io.Reader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return nil, fmt.Errorf("process publisher: no command output to read")
	}
	return bytes.NewReader(p.last), nil
}

// Output buffers data as stdin for the next command.
func (p *Publisher) Output(ctx context.Context, action *domain.Action, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, data...)
	return nil
}

// Call runs the tool registered as method. The result is the trimmed stdout, decoded
// when it is a JSON object or array. A non-zero exit is an error carrying stderr.
func (p *Publisher) Call(ctx context.Context, action *domain.Action, method string, params []*domain.ActionParameter) (any, error) {
	p.mu.Lock()
	tool, ok := p.tools[method]
	stdin := p.pending
	p.pending = nil
	baseDir, waitDelay := p.baseDir, p.waitDelay
	p.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("process tool not registered: %s", method)
	}

	cmd := exec.CommandContext(ctx, tool.Command, tool.Args...)
	cmd.Dir = baseDir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = waitDelay

	env := cmd.Environ()
	for k, v := range tool.Environment {
		env = append(env, k+"="+v)
	}
	for _, param := range params {
		if param.Type == "out" {
			continue
		}
		env = append(env, EnvPrefix+envName(param.Name)+"="+string(param.Bytes()))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	p.mu.Lock()
	p.last = append([]byte(nil), stdout.Bytes()...)
	p.exit = cmd.ProcessState.ExitCode()
	p.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("process %s failed: %w (stderr: %s)", method, err, strings.TrimSpace(stderr.String()))
	}

	trimmed := strings.TrimSpace(stdout.String())
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var decoded any
		if json.Unmarshal([]byte(trimmed), &decoded) == nil {
			return decoded, nil
		}
	}
	return trimmed, nil
}

// GetProperty exposes "exitCode" of the last command and "stdout".
func (p *Publisher) GetProperty(ctx context.Context, action *domain.Action, name string) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch name {
	case "exitCode":
		return p.exit, nil
	case "stdout":
		return string(p.last), nil
	}
	return nil, fmt.Errorf("process publisher: unknown property %q", name)
}

// SetProperty accepts "baseDir".
func (p *Publisher) SetProperty(ctx context.Context, action *domain.Action, name string, value any) error {
	if name != "baseDir" {
		return fmt.Errorf("process publisher: unknown property %q", name)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.baseDir = cast.ToString(value)
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

func envName(name string) string {
	return envUnsafe.ReplaceAllString(strings.ToUpper(name), "_")
}
