// Package crack fills a data model from received bytes.
//
// The Cracker walks the model depth first and consumes the input in element order:
//
//   - Number reads Size bits and honors byte order and sign.
//   - Blob and String read Length bytes when fixed, else the length carried by the number
//     a size-of relation binds to them, else the rest of the input.
//   - Padding skips the bits that realign the element it is aligned to.
//   - Block and DataModel recurse into their children.
package crack

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/orchard/internal/logging"
	"github.com/aretw0/orchard/pkg/datamodel"
	"github.com/aretw0/orchard/pkg/ports"
)

// Cracker implements ports.Cracker sequentially.
type Cracker struct {
	logger *slog.Logger
	strict bool
}

// Option configures the Cracker.
type Option func(*Cracker)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cracker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStrict makes unconsumed trailing input a cracking failure.
func WithStrict() Option {
	return func(c *Cracker) {
		c.strict = true
	}
}

// New creates a cracker.
func New(opts ...Option) *Cracker {
	c := &Cracker{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.Cracker = (*Cracker)(nil)

// crack holds the state of one Crack call.
type crack struct {
	ctx    context.Context
	in     *datamodel.BitStream
	sizes  map[datamodel.Element]int64
	starts map[datamodel.Element]int64
}

// Crack reads r to the end and assigns the decoded values to model's elements.
// Input that does not fit the model is reported as *ports.CrackingFailure.
func (c *Cracker) Crack(ctx context.Context, model *datamodel.DataModel, r io.Reader) error {
	if r == nil {
		return &ports.CrackingFailure{Element: model.FullName(), Err: io.ErrUnexpectedEOF}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	st := &crack{
		ctx:    ctx,
		in:     datamodel.NewBitStreamFromBytes(data),
		sizes:  make(map[datamodel.Element]int64),
		starts: make(map[datamodel.Element]int64),
	}
	if err := st.element(model); err != nil {
		return err
	}

	if rem := st.in.Remaining(); rem > 0 {
		if c.strict {
			return &ports.CrackingFailure{
				Element: model.FullName(),
				Err:     fmt.Errorf("%d bits of trailing input", rem),
			}
		}
		c.logger.DebugContext(ctx, "trailing input ignored", "model", model.Name(), "bits", rem)
	}
	return nil
}

func (st *crack) element(e datamodel.Element) error {
	if err := st.ctx.Err(); err != nil {
		return err
	}

	switch v := e.(type) {
	case *datamodel.DataModel:
		return st.children(v, v.Children())
	case *datamodel.Block:
		return st.children(v, v.Children())
	case *datamodel.Number:
		return st.number(v)
	case *datamodel.Blob:
		return st.bytes(v, v.Length)
	case *datamodel.String:
		return st.bytes(v, v.Length)
	case *datamodel.Padding:
		return st.padding(v)
	}
	return &ports.CrackingFailure{Element: e.FullName(), Err: fmt.Errorf("unsupported element %T", e)}
}

func (st *crack) children(container datamodel.Element, children []datamodel.Element) error {
	st.starts[container] = st.in.PositionBits()
	for _, child := range children {
		if err := st.element(child); err != nil {
			return err
		}
	}
	return nil
}

func (st *crack) number(n *datamodel.Number) error {
	raw, err := st.in.ReadBits(n.Size)
	if err != nil {
		return &ports.CrackingFailure{Element: n.FullName(), Err: err}
	}
	v := n.Decode(raw)
	if r := n.Relation(); r != nil && r.Kind == datamodel.SizeOf && r.Of != nil {
		st.sizes[r.Of] = v
	}
	if err := n.SetDefaultValue(v); err != nil {
		return &ports.CrackingFailure{Element: n.FullName(), Err: err}
	}
	return nil
}

func (st *crack) bytes(e datamodel.Element, length int) error {
	n := int64(length)
	if n <= 0 {
		if size, ok := st.sizes[e]; ok {
			n = size
		} else {
			n = st.in.Remaining() / 8
		}
	}
	if n < 0 {
		return &ports.CrackingFailure{Element: e.FullName(), Err: fmt.Errorf("negative length %d", n)}
	}

	data, err := st.in.ReadBytes(int(n))
	if err != nil {
		return &ports.CrackingFailure{Element: e.FullName(), Err: err}
	}
	if err := e.SetDefaultValue(data); err != nil {
		return &ports.CrackingFailure{Element: e.FullName(), Err: err}
	}
	return nil
}

func (st *crack) padding(p *datamodel.Padding) error {
	skip := st.paddingBits(p)
	if skip > st.in.Remaining() {
		return &ports.CrackingFailure{
			Element: p.FullName(),
			Err:     fmt.Errorf("need %d padding bits, have %d: %w", skip, st.in.Remaining(), datamodel.ErrShortStream),
		}
	}
	return st.in.SeekBits(st.in.PositionBits() + skip)
}

// paddingBits aligns against the bits consumed since the target started when the target is
// being cracked; otherwise the padding's generated length is used.
func (st *crack) paddingBits(p *datamodel.Padding) int64 {
	target := p.AlignedTo()
	if target == nil && p.Parent() != nil {
		target = p.Parent()
	}
	start, ok := st.starts[target]
	if !p.Aligned || p.LengthCalc != "" || !ok {
		return p.Value().LengthBits()
	}

	alignment := int64(p.Alignment)
	if alignment <= 0 {
		alignment = datamodel.DefaultAlignment
	}
	consumed := st.in.PositionBits() - start
	if consumed > 0 && consumed%alignment == 0 {
		return 0
	}
	if consumed == 0 {
		return alignment
	}
	return alignment - consumed%alignment
}
