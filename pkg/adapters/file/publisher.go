package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"

	"github.com/aretw0/orchard/pkg/domain"
)

// Property names understood by the publisher.
const (
	PropertyFileName      = "fileName"
	PropertyInputFileName = "inputFileName"
)

// Config holds the publisher parameters as written in a pit.
type Config struct {
	FileName      string `mapstructure:"fileName"`
	InputFileName string `mapstructure:"inputFileName"`
	Append        bool   `mapstructure:"append"`
}

// Publisher writes outputs to a file and serves the contents of a file as input.
// Open truncates the output file unless Append is set.
type Publisher struct {
	mu sync.Mutex

	cfg     Config
	started bool
	f       *os.File
}

// NewPublisher creates a file publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.FileName == "" {
		return nil, fmt.Errorf("file publisher: fileName is required")
	}
	return &Publisher{cfg: cfg}, nil
}

// Factory builds a publisher from pit parameters. It is registered as the "file" class.
func Factory(params map[string]any) (domain.Publisher, error) {
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
		return nil, fmt.Errorf("file publisher: %w", err)
	}
	return NewPublisher(cfg)
}

// Start marks the publisher started.
func (p *Publisher) Start(ctx context.Context, action *domain.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = true
	return nil
}

// Stop closes the output file and marks the publisher stopped.
func (p *Publisher) Stop(ctx context.Context, action *domain.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = false
	return p.closeLocked()
}

// Open opens the output file.
func (p *Publisher) Open(ctx context.Context, action *domain.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.f != nil {
		return nil
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if p.cfg.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(p.cfg.FileName, flags, 0644)
	if err != nil {
		return fmt.Errorf("file publisher: open %s: %w", p.cfg.FileName, err)
	}
	p.f = f
	return nil
}

// Close closes the output file.
func (p *Publisher) Close(ctx context.Context, action *domain.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *Publisher) closeLocked() error {
	if p.f == nil {
		return nil
	}
	err := p.f.Close()
	p.f = nil
	if err != nil {
		return fmt.Errorf("file publisher: close %s: %w", p.cfg.FileName, err)
	}
	return nil
}

// Accept is a no-op; a file has no peer to wait for.
func (p *Publisher) Accept(ctx context.Context, action *domain.Action) error {
	return nil
}

// Input returns the contents of InputFileName, or of FileName when unset.
func (p *Publisher) Input(ctx context.Context, action *domain.Action) (io.Reader, error) {
	p.mu.Lock()
	name := p.cfg.InputFileName
	if name == "" {
		name = p.cfg.FileName
	}
	p.mu.Unlock()

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("file publisher: read %s: %w", name, err)
	}
	return bytes.NewReader(data), nil
}

// Output appends data to the open output file.
func (p *Publisher) Output(ctx context.Context, action *domain.Action, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.f == nil {
		return fmt.Errorf("file publisher: %s is not open", p.cfg.FileName)
	}
	if _, err := p.f.Write(data); err != nil {
		return fmt.Errorf("file publisher: write %s: %w", p.cfg.FileName, err)
	}
	return nil
}

// Call is not supported by files.
func (p *Publisher) Call(ctx context.Context, action *domain.Action, method string, params []*domain.ActionParameter) (any, error) {
	return nil, fmt.Errorf("file publisher: call %q: %w", method, errors.ErrUnsupported)
}

// GetProperty returns fileName or inputFileName.
func (p *Publisher) GetProperty(ctx context.Context, action *domain.Action, name string) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch name {
	case PropertyFileName:
		return p.cfg.FileName, nil
	case PropertyInputFileName:
		return p.cfg.InputFileName, nil
	}
	return nil, fmt.Errorf("file publisher: unknown property %q", name)
}

// SetProperty redirects fileName or inputFileName. The output file cannot change while open.
func (p *Publisher) SetProperty(ctx context.Context, action *domain.Action, name string, value any) error {
	s, err := cast.ToStringE(value)
	if err != nil {
		return fmt.Errorf("file publisher: property %q: %w", name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	switch name {
	case PropertyFileName:
		if p.f != nil {
			return fmt.Errorf("file publisher: cannot change fileName while %s is open", p.cfg.FileName)
		}
		p.cfg.FileName = s
		return nil
	case PropertyInputFileName:
		p.cfg.InputFileName = s
		return nil
	}
	return fmt.Errorf("file publisher: unknown property %q", name)
}

// HasStarted reports whether Start ran since the last Stop.
func (p *Publisher) HasStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// IsOpen reports whether the output file is open.
func (p *Publisher) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.f != nil
}
