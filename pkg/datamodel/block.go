package datamodel

import (
	"fmt"
	"strings"
)

// Block is an ordered container of uniquely named elements. Its value is the concatenation
// of its children's values unless an override stream has been set.
type Block struct {
	node
	children []Element
	override *BitStream
}

// NewBlock creates an empty block.
func NewBlock(name string, children ...Element) *Block {
	b := &Block{}
	b.init(b, name)
	for _, c := range children {
		// Constructor input with duplicate names is a programming error.
		if err := b.Append(c); err != nil {
			panic(err)
		}
	}
	return b
}

func asBlock(e Element) (*Block, bool) {
	switch v := e.(type) {
	case *Block:
		return v, true
	case *DataModel:
		return &v.Block, true
	}
	return nil, false
}

// Children returns the children in order.
func (b *Block) Children() []Element {
	out := make([]Element, len(b.children))
	copy(out, b.children)
	return out
}

// Child returns the direct child with the given name, or nil.
func (b *Block) Child(name string) Element {
	for _, c := range b.children {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// Find resolves a dotted path of child names relative to the block.
func (b *Block) Find(path string) Element {
	var cur Element = b.self
	for _, part := range strings.Split(path, ".") {
		c, ok := cur.(Container)
		if !ok {
			return nil
		}
		if cur = c.Child(part); cur == nil {
			return nil
		}
	}
	return cur
}

// Append adds e as the last child. The element's invalidation edges move with it.
func (b *Block) Append(e Element) error {
	if b.Child(e.Name()) != nil {
		return fmt.Errorf("%w: %q in %q", ErrDuplicateName, e.Name(), b.FullName())
	}
	child := e.base()
	if child.parent != nil {
		if pb, ok := asBlock(child.parent); ok {
			pb.detach(e)
			pb.Invalidate()
		}
	}
	moved := child.deps
	child.deps = nil

	child.parent = b.self.(Container)
	b.children = append(b.children, e)
	if moved != nil {
		b.dependencies().merge(moved)
	}
	rebind(e)
	b.Invalidate()
	return nil
}

// rebind registers again the relations held inside e, so edges keyed on the tree top
// follow the tree e now belongs to. Positions changed, so every element in e is invalidated.
func rebind(e Element) {
	_ = walk(e, func(el Element) error {
		for _, r := range el.Relations().All() {
			if r.From != nil && r.Of != nil {
				bind(r)
			}
		}
		el.Invalidate()
		return nil
	})
}

// Remove detaches and returns the child with the given name, or nil when absent.
func (b *Block) Remove(name string) Element {
	c := b.Child(name)
	if c == nil {
		return nil
	}
	b.detach(c)
	b.Invalidate()
	return c
}

// detach unlinks e and makes it the top of its own tree, taking along the edges whose
// source lies inside it.
func (b *Block) detach(e Element) {
	child := e.base()
	var moved *Dependencies
	top := b.top()
	if top.deps != nil {
		moved = top.deps.extract(child, top)
	}

	for i, c := range b.children {
		if c.base() == child {
			b.children = append(b.children[:i:i], b.children[i+1:]...)
			break
		}
	}
	child.parent = nil

	if moved != nil && moved.Len() > 0 {
		child.dependencies().merge(moved)
	}
}

// DefaultValue returns the block's current value stream.
func (b *Block) DefaultValue() any {
	return b.Value()
}

// SetDefaultValue overrides the block's value with a fixed stream. A nil value clears the override.
func (b *Block) SetDefaultValue(v any) error {
	switch val := v.(type) {
	case nil:
		b.override = nil
	case *BitStream:
		b.override = val.Clone()
	case []byte:
		b.override = NewBitStreamFromBytes(val)
	case string:
		b.override = NewBitStreamFromBytes([]byte(val))
	default:
		return fmt.Errorf("%w: block %q cannot hold %T", ErrInvalidValue, b.FullName(), v)
	}
	b.Invalidate()
	return nil
}

func (b *Block) generate() *BitStream {
	if b.override != nil {
		return b.override.Clone()
	}
	out := NewBitStream()
	for _, c := range b.children {
		out.WriteStream(c.Value())
	}
	return out
}

func (b *Block) placeholder() *BitStream { return NewBitStream() }
