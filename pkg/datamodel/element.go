package datamodel

import "strings"

// Element is one node of a data-model tree.
//
// The set of implementations is closed: Block, DataModel, Number, Blob, String and Padding.
type Element interface {
	Name() string
	Parent() Container
	FullName() string

	// Value returns the element's current bits, positioned at zero.
	// The returned stream is a copy; writing to it does not affect the element.
	Value() *BitStream

	DefaultValue() any
	SetDefaultValue(v any) error

	// Invalidate drops the cached value of this element and of everything that depends on it.
	Invalidate()

	Relations() *RelationGraph
	Root() *DataModel

	base() *node
}

// Container is an element that owns ordered, uniquely named children.
type Container interface {
	Element
	Children() []Element
	Child(name string) Element
}

// generator is implemented by every concrete element.
type generator interface {
	// generate builds the element's value from scratch.
	generate() *BitStream
	// placeholder is returned when the element is read while it is being generated.
	placeholder() *BitStream
}

type node struct {
	name      string
	parent    Container
	self      Element
	relations *RelationGraph

	cache     *BitStream
	dirty     bool
	computing bool
	reentries int
	err       error

	// Kept on the top-most ancestor only.
	shortCircuits int
	deps          *Dependencies
}

func (n *node) init(self Element, name string) {
	n.self = self
	n.name = name
	n.dirty = true
	n.relations = &RelationGraph{owner: self}
}

func (n *node) base() *node { return n }

// Name returns the element name.
func (n *node) Name() string { return n.name }

// Parent returns the containing element, or nil for a detached or root element.
func (n *node) Parent() Container { return n.parent }

// Relations returns the element's relation graph.
func (n *node) Relations() *RelationGraph { return n.relations }

// FullName returns the dotted path of names from the top-most ancestor.
func (n *node) FullName() string {
	var parts []string
	for e := n.self; e != nil; {
		parts = append(parts, e.Name())
		p := e.Parent()
		if p == nil {
			break
		}
		e = p
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// Root returns the data model at the top of the tree, or nil when the top is not a model.
func (n *node) Root() *DataModel {
	m, _ := n.top().self.(*DataModel)
	return m
}

func (n *node) top() *node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent.base()
	}
	return cur
}

// within reports whether n is root or one of its descendants.
func (n *node) within(root *node) bool {
	for cur := n; cur != nil; {
		if cur == root {
			return true
		}
		if cur.parent == nil {
			return false
		}
		cur = cur.parent.base()
	}
	return false
}

func (n *node) dependencies() *Dependencies {
	t := n.top()
	if t.deps == nil {
		t.deps = newDependencies()
	}
	return t.deps
}

// Value returns the cached value, generating it when dirty.
//
// A read that arrives while the element is already generating gets the element's placeholder.
// Results built while another element was short-circuited are returned but not cached, so the
// next read after the cycle unwinds sees the real value.
func (n *node) Value() *BitStream {
	if !n.dirty && n.cache != nil {
		return n.cache.Clone()
	}

	gen := n.self.(generator)
	t := n.top()

	if n.computing {
		n.reentries++
		t.shortCircuits++
		out := gen.placeholder()
		out.Rewind()
		return out
	}

	n.computing = true
	n.reentries = 0
	before := t.shortCircuits

	out := gen.generate()

	n.computing = false
	out.Rewind()

	if t.shortCircuits-before == n.reentries {
		n.cache = out.Clone()
		n.dirty = false
	}
	return out
}

// Invalidate marks the element dirty and walks its dependents and its container chain.
func (n *node) Invalidate() {
	invalidate(n.self, make(map[*node]bool))
}

func invalidate(e Element, seen map[*node]bool) {
	b := e.base()
	if seen[b] {
		return
	}
	seen[b] = true

	b.dirty = true
	b.cache = nil

	if deps := b.top().deps; deps != nil {
		for _, d := range deps.Dependents(e) {
			invalidate(d, seen)
		}
	}
	if b.parent != nil {
		invalidate(b.parent, seen)
	}
}

// Err returns the error recorded by the element's last generation, if any.
func (n *node) Err() error { return n.err }

// contains reports whether target is e or one of e's ancestors.
func contains(target, e Element) bool {
	for cur := e; cur != nil; {
		if cur.base() == target.base() {
			return true
		}
		p := cur.Parent()
		if p == nil {
			return false
		}
		cur = p
	}
	return false
}

// measure returns the bit length of target as it would be if hole contributed only its placeholder.
// It lets an element size or align against a container it lives in without re-entering itself.
func measure(target, hole Element) int64 {
	if hole == nil || !contains(target, hole) {
		return target.Value().LengthBits()
	}
	if target.base() == hole.base() {
		return hole.base().self.(generator).placeholder().LengthBits()
	}
	if b, ok := asBlock(target); ok && b.override != nil {
		return b.override.LengthBits()
	}
	c, ok := target.(Container)
	if !ok {
		return target.Value().LengthBits()
	}
	var total int64
	for _, child := range c.Children() {
		total += measure(child, hole)
	}
	return total
}
