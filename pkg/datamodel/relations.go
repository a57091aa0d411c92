package datamodel

// RelationGraph is the per-element collection of relations. It holds at most one relation
// of each kind, but may hold relations describing other elements, which is why the
// HasOf* queries only report relations whose Of is the owning element.
type RelationGraph struct {
	owner Element
	list  []*Relation
}

// Add inserts r and makes the owner its back-reference. A second relation of the same
// kind is rejected and the graph is left unchanged.
func (g *RelationGraph) Add(r *Relation) error {
	for _, existing := range g.list {
		if existing.Kind == r.Kind {
			return &DuplicateRelationError{Element: g.owner.FullName(), Kind: r.Kind}
		}
	}
	r.parent = g.owner
	g.list = append(g.list, r)
	return nil
}

// Remove deletes r and clears its back-reference. It reports whether r was present.
func (g *RelationGraph) Remove(r *Relation) bool {
	for i, existing := range g.list {
		if existing == r {
			g.list = append(g.list[:i:i], g.list[i+1:]...)
			r.parent = nil
			return true
		}
	}
	return false
}

// Replace swaps the relation at index for r. The old relation loses its back-reference.
func (g *RelationGraph) Replace(index int, r *Relation) error {
	for i, existing := range g.list {
		if i != index && existing.Kind == r.Kind {
			return &DuplicateRelationError{Element: g.owner.FullName(), Kind: r.Kind}
		}
	}
	g.list[index].parent = nil
	r.parent = g.owner
	g.list[index] = r
	return nil
}

// Clear removes every relation.
func (g *RelationGraph) Clear() {
	for _, r := range g.list {
		r.parent = nil
	}
	g.list = nil
}

// Get returns the relation of kind whose Of is the owner, or nil.
func (g *RelationGraph) Get(kind RelationKind) *Relation {
	for _, r := range g.list {
		if r.Kind == kind && r.Of != nil && r.Of.base() == g.owner.base() {
			return r
		}
	}
	return nil
}

// Has reports whether any relation of kind is present, regardless of which element it describes.
func (g *RelationGraph) Has(kind RelationKind) bool {
	for _, r := range g.list {
		if r.Kind == kind {
			return true
		}
	}
	return false
}

func (g *RelationGraph) HasOfSizeRelation() bool   { return g.Get(SizeOf) != nil }
func (g *RelationGraph) HasOfOffsetRelation() bool { return g.Get(OffsetOf) != nil }
func (g *RelationGraph) HasOfCountRelation() bool  { return g.Get(CountOf) != nil }

// All returns the relations in insertion order.
func (g *RelationGraph) All() []*Relation {
	out := make([]*Relation, len(g.list))
	copy(out, g.list)
	return out
}

// At returns the relation at index.
func (g *RelationGraph) At(index int) *Relation { return g.list[index] }

// Len returns the number of relations.
func (g *RelationGraph) Len() int { return len(g.list) }
