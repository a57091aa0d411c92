package datamodel

import (
	"fmt"

	"github.com/spf13/cast"
)

// Number is a fixed-width integer. When it is the From side of a relation, its value is
// the relation's computed value rather than its default.
type Number struct {
	node
	Size         int
	Signed       bool
	LittleEndian bool

	value int64
}

// NewNumber creates a big-endian unsigned number of size bits.
func NewNumber(name string, size int, value int64) *Number {
	n := &Number{Size: size, value: value}
	n.init(n, name)
	return n
}

// DefaultValue returns the effective value as int64.
func (n *Number) DefaultValue() any {
	return n.effective()
}

// SetDefaultValue sets the number's value. A relation bound to the number takes precedence.
func (n *Number) SetDefaultValue(v any) error {
	i, err := cast.ToInt64E(v)
	if err != nil {
		return fmt.Errorf("%w: number %q: %v", ErrInvalidValue, n.FullName(), err)
	}
	n.value = i
	n.Invalidate()
	return nil
}

// Static returns the value set on the number, ignoring relations.
func (n *Number) Static() int64 { return n.value }

// Relation returns the relation that computes this number's value, or nil.
func (n *Number) Relation() *Relation {
	for _, r := range n.relations.All() {
		if r.From != nil && r.From.base() == &n.node {
			return r
		}
	}
	return nil
}

func (n *Number) effective() int64 {
	if r := n.Relation(); r != nil {
		return r.Compute()
	}
	return n.value
}

func (n *Number) generate() *BitStream {
	return n.encode(n.effective())
}

func (n *Number) placeholder() *BitStream {
	return n.encode(n.value)
}

func (n *Number) encode(v int64) *BitStream {
	out := NewBitStream()
	size := n.Size
	if size <= 0 {
		return out
	}
	if size > 64 {
		size = 64
	}
	u := uint64(v)
	if size < 64 {
		u &= 1<<uint(size) - 1
	}
	if n.LittleEndian && size%8 == 0 {
		for i := 0; i < size/8; i++ {
			out.WriteBits(u>>(8*uint(i))&0xFF, 8)
		}
		return out
	}
	out.WriteBits(u, size)
	return out
}

// Decode interprets raw bits read for this number according to its sign and byte order.
func (n *Number) Decode(raw uint64) int64 {
	size := n.Size
	if n.LittleEndian && size%8 == 0 {
		var swapped uint64
		for i := 0; i < size/8; i++ {
			swapped = swapped<<8 | raw>>(8*uint(i))&0xFF
		}
		raw = swapped
	}
	if n.Signed && size > 0 && size < 64 && raw&(1<<uint(size-1)) != 0 {
		return int64(raw) - int64(1)<<uint(size)
	}
	return int64(raw)
}
