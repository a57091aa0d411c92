package datamodel

import "fmt"

// RelationKind identifies what a relation computes.
type RelationKind int

const (
	SizeOf RelationKind = iota + 1
	OffsetOf
	CountOf
)

func (k RelationKind) String() string {
	switch k {
	case SizeOf:
		return "size-of"
	case OffsetOf:
		return "offset-of"
	case CountOf:
		return "count-of"
	}
	return fmt.Sprintf("RelationKind(%d)", int(k))
}

// ParseRelationKind maps the names used in pit files to kinds.
func ParseRelationKind(s string) (RelationKind, error) {
	switch s {
	case "size", "sizeOf", "size-of":
		return SizeOf, nil
	case "offset", "offsetOf", "offset-of":
		return OffsetOf, nil
	case "count", "countOf", "count-of":
		return CountOf, nil
	}
	return 0, fmt.Errorf("unknown relation kind %q", s)
}

// Relation links the element it describes (Of) to the element that holds the computed
// value (From).
type Relation struct {
	Kind RelationKind
	Of   Element
	From Element

	parent Element
}

// Parent returns the element whose graph currently holds the relation, or nil once removed.
func (r *Relation) Parent() Element { return r.parent }

// Compute returns the relation's current value: bytes for size and offset, children for count.
func (r *Relation) Compute() int64 {
	if r.Of == nil {
		return 0
	}
	switch r.Kind {
	case SizeOf:
		return (measure(r.Of, r.From) + 7) / 8
	case OffsetOf:
		return (offsetBits(r.Of, r.From) + 7) / 8
	case CountOf:
		if c, ok := r.Of.(Container); ok {
			return int64(len(c.Children()))
		}
	}
	return 0
}

// offsetBits is the number of bits that precede e in its top-most ancestor.
func offsetBits(e, hole Element) int64 {
	var total int64
	for cur := e; ; {
		p := cur.Parent()
		if p == nil {
			return total
		}
		for _, sib := range p.Children() {
			if sib.base() == cur.base() {
				break
			}
			total += measure(sib, hole)
		}
		cur = p
	}
}

// Relate binds a relation of kind between from and of: it is added to of's graph and then
// to from's graph, and from is registered as depending on of.
func Relate(kind RelationKind, from, of Element) (*Relation, error) {
	r := &Relation{Kind: kind, Of: of, From: from}
	if err := of.Relations().Add(r); err != nil {
		return nil, err
	}
	if from.base() != of.base() {
		if err := from.Relations().Add(r); err != nil {
			of.Relations().Remove(r)
			return nil, err
		}
	}
	bind(r)
	from.Invalidate()
	return r, nil
}

// Unrelate removes r from both graphs and drops its invalidation edges.
func Unrelate(r *Relation) {
	unbind(r)
	r.Of.Relations().Remove(r)
	r.From.Relations().Remove(r)
	r.From.Invalidate()
}

func bind(r *Relation) {
	observe(r.Of, r.From)
	if r.Kind == OffsetOf {
		// Anything before Of moves it.
		observe(r.Of.base().top().self, r.From)
	}
}

func unbind(r *Relation) {
	forget(r.Of, r.From)
	if r.Kind == OffsetOf {
		forget(r.Of.base().top().self, r.From)
	}
}
