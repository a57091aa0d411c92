package dsl

import (
	"strconv"

	"github.com/aretw0/orchard/pkg/pit"
)

// ModelBuilder provides a fluent API for configuring a data model or block.
// Modifiers such as SizeOf or LittleEndian apply to the last element added.
type ModelBuilder struct {
	spec     pit.DataModelSpec
	children *[]pit.ElementSpec
}

// Ref makes the model inherit the children of another model.
func (m *ModelBuilder) Ref(base string) *ModelBuilder {
	m.spec.Ref = base
	return m
}

func (m *ModelBuilder) add(e pit.ElementSpec) *ModelBuilder {
	*m.children = append(*m.children, e)
	return m
}

func (m *ModelBuilder) last() *pit.ElementSpec {
	list := *m.children
	if len(list) == 0 {
		return nil
	}
	return &list[len(list)-1]
}

// Number adds a big-endian unsigned number of size bits.
func (m *ModelBuilder) Number(name string, size int, value int64) *ModelBuilder {
	return m.add(pit.ElementSpec{Name: name, Type: "number", Size: size, Value: strconv.FormatInt(value, 10)})
}

// String adds a string element.
func (m *ModelBuilder) String(name, value string) *ModelBuilder {
	return m.add(pit.ElementSpec{Name: name, Type: "string", Value: value})
}

// Blob adds a blob element.
func (m *ModelBuilder) Blob(name string, value []byte) *ModelBuilder {
	return m.add(pit.ElementSpec{Name: name, Type: "blob", Value: string(value)})
}

// Padding adds padding that aligns its parent to alignment bits.
func (m *ModelBuilder) Padding(name string, alignment int) *ModelBuilder {
	return m.add(pit.ElementSpec{Name: name, Type: "padding", Alignment: alignment})
}

// ScriptedPadding adds padding whose bit length is computed by expression.
func (m *ModelBuilder) ScriptedPadding(name, expression string) *ModelBuilder {
	return m.add(pit.ElementSpec{Name: name, Type: "padding", LengthCalc: expression})
}

// Block adds a block and lets fn fill it.
func (m *ModelBuilder) Block(name string, fn func(*ModelBuilder)) *ModelBuilder {
	m.add(pit.ElementSpec{Name: name, Type: "block"})
	last := m.last()
	fn(&ModelBuilder{children: &last.Children})
	return m
}

// Length fixes the byte length of the last blob or string.
func (m *ModelBuilder) Length(n int) *ModelBuilder {
	if e := m.last(); e != nil {
		e.Length = n
	}
	return m
}

// LittleEndian makes the last number little endian.
func (m *ModelBuilder) LittleEndian() *ModelBuilder {
	if e := m.last(); e != nil {
		e.LittleEndian = true
	}
	return m
}

// Signed makes the last number signed.
func (m *ModelBuilder) Signed() *ModelBuilder {
	if e := m.last(); e != nil {
		e.Signed = true
	}
	return m
}

// AlignedTo makes the last padding align another element, by dotted path.
func (m *ModelBuilder) AlignedTo(path string) *ModelBuilder {
	if e := m.last(); e != nil {
		e.AlignedTo = path
	}
	return m
}

// SizeOf makes the last element hold the byte size of the element at path.
func (m *ModelBuilder) SizeOf(path string) *ModelBuilder { return m.relate("size", path) }

// OffsetOf makes the last element hold the byte offset of the element at path.
func (m *ModelBuilder) OffsetOf(path string) *ModelBuilder { return m.relate("offset", path) }

// CountOf makes the last element hold the number of children of the block at path.
func (m *ModelBuilder) CountOf(path string) *ModelBuilder { return m.relate("count", path) }

func (m *ModelBuilder) relate(kind, path string) *ModelBuilder {
	if e := m.last(); e != nil {
		e.Relations = append(e.Relations, pit.RelationSpec{Type: kind, Of: path})
	}
	return m
}
