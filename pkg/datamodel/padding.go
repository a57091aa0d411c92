package datamodel

import (
	"context"
	"fmt"

	"github.com/aretw0/orchard/pkg/script"
	"github.com/spf13/cast"
)

// DefaultAlignment is the boundary, in bits, used when none is configured.
const DefaultAlignment = 8

// Padding is a run of zero bits whose length is always derived.
//
// In aligned mode it pads the alignment target (AlignedTo, else the parent) up to a multiple
// of Alignment bits. With LengthCalc set, the expression is evaluated with "alignedTo" and
// "self" (the padding's parent) bound, and its integer result is the number of bits.
type Padding struct {
	node
	Aligned    bool
	Alignment  int
	LengthCalc string

	alignedTo  Element
	subscribed Element
}

// NewPadding creates an aligned padding. A non-positive alignment selects DefaultAlignment.
func NewPadding(name string, alignment int) *Padding {
	if alignment <= 0 {
		alignment = DefaultAlignment
	}
	p := &Padding{Aligned: true, Alignment: alignment}
	p.init(p, name)
	return p
}

// NewScriptedPadding creates a padding whose length in bits is computed by expression.
func NewScriptedPadding(name, expression string) *Padding {
	p := &Padding{Alignment: DefaultAlignment, LengthCalc: expression}
	p.init(p, name)
	return p
}

// AlignedTo returns the explicit alignment target, or nil when the parent is used.
func (p *Padding) AlignedTo() Element { return p.alignedTo }

// SetAlignedTo rebinds the alignment target and moves the invalidation subscription to it.
func (p *Padding) SetAlignedTo(e Element) {
	p.unsubscribe()
	p.alignedTo = e
	p.subscribe()
	p.Invalidate()
}

// DefaultValue returns the computed padding stream.
func (p *Padding) DefaultValue() any { return p.Value() }

// SetDefaultValue always fails: padding is derived.
func (p *Padding) SetDefaultValue(any) error {
	return fmt.Errorf("%w: padding %q", ErrReadOnlyValue, p.FullName())
}

func (p *Padding) target() Element {
	if p.alignedTo != nil {
		return p.alignedTo
	}
	if p.parent != nil {
		return p.parent
	}
	return nil
}

func (p *Padding) subscribe() {
	t := p.target()
	if t == nil {
		return
	}
	observe(t, p)
	p.subscribed = t
}

func (p *Padding) unsubscribe() {
	if p.subscribed != nil {
		forget(p.subscribed, p)
		p.subscribed = nil
	}
}

// ensureSubscribed covers implicit parent alignment and trees rebuilt by Clone or Append.
func (p *Padding) ensureSubscribed() {
	t := p.target()
	if t == nil {
		return
	}
	if p.subscribed == nil || p.subscribed.base() != t.base() {
		p.unsubscribe()
		p.subscribe()
		return
	}
	// Edges live in the current top-most ancestor; re-register after a move.
	observe(t, p)
}

func (p *Padding) generate() *BitStream {
	p.err = nil
	p.ensureSubscribed()

	out := NewBitStream()
	target := p.target()

	if p.LengthCalc != "" {
		return p.scripted(target)
	}
	if !p.Aligned || target == nil {
		return out
	}

	alignment := int64(p.Alignment)
	if alignment <= 0 {
		alignment = DefaultAlignment
	}

	length := measure(target, p)
	if length > 0 && length%alignment == 0 {
		return out
	}
	out.WriteBit(0)
	for (length+out.LengthBits())%alignment != 0 {
		out.WriteBit(0)
	}
	out.Rewind()
	return out
}

func (p *Padding) scripted(target Element) *BitStream {
	out := NewBitStream()

	eval := p.evaluator()
	if eval == nil {
		p.err = ErrNoEvaluator
		return out
	}

	vars := map[string]any{
		"alignedTo": target,
		"self":      p.parent,
	}
	v, err := eval.Evaluate(context.Background(), p.LengthCalc, vars)
	if err != nil {
		p.err = fmt.Errorf("length calculation: %w", err)
		return out
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		p.err = fmt.Errorf("length calculation returned %T: %w", v, ErrInvalidValue)
		return out
	}
	for i := int64(0); i < n; i++ {
		out.WriteBit(0)
	}
	out.Rewind()
	return out
}

func (p *Padding) evaluator() script.Evaluator {
	if m := p.Root(); m != nil && m.evaluator != nil {
		return m.evaluator
	}
	return nil
}

func (p *Padding) placeholder() *BitStream { return NewBitStream() }
