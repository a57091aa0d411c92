package datamodel

// Dependencies is the invalidation graph of one tree. An edge source -> dependent means the
// dependent's value is derived from the source's, so invalidating the source invalidates it too.
type Dependencies struct {
	edges map[*node][]Element
}

func newDependencies() *Dependencies {
	return &Dependencies{edges: make(map[*node][]Element)}
}

// Observe registers dependent as derived from source. Registering the same edge twice is a no-op.
func (d *Dependencies) Observe(source, dependent Element) {
	key := source.base()
	for _, e := range d.edges[key] {
		if e.base() == dependent.base() {
			return
		}
	}
	d.edges[key] = append(d.edges[key], dependent)
}

// Forget removes the edge source -> dependent.
func (d *Dependencies) Forget(source, dependent Element) {
	key := source.base()
	list := d.edges[key]
	for i, e := range list {
		if e.base() == dependent.base() {
			d.edges[key] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(d.edges[key]) == 0 {
		delete(d.edges, key)
	}
}

// Dependents returns the elements derived from source.
func (d *Dependencies) Dependents(source Element) []Element {
	list := d.edges[source.base()]
	out := make([]Element, len(list))
	copy(out, list)
	return out
}

// Len returns the number of edges.
func (d *Dependencies) Len() int {
	n := 0
	for _, list := range d.edges {
		n += len(list)
	}
	return n
}

func (d *Dependencies) merge(other *Dependencies) {
	if other == nil {
		return
	}
	for key, list := range other.edges {
		for _, dep := range list {
			d.Observe(key.self, dep)
		}
	}
}

// extract removes and returns the edges whose source lies inside the subtree rooted at root.
// Edges into the subtree from outside stay, since they are looked up from their source's tree,
// except those keyed on top (whole-tree edges such as offset-of): they are re-keyed on root.
func (d *Dependencies) extract(root, top *node) *Dependencies {
	out := newDependencies()
	for key, list := range d.edges {
		if key.within(root) {
			out.edges[key] = list
			delete(d.edges, key)
			continue
		}
		if key != top {
			continue
		}
		for _, dep := range list {
			if dep.base().within(root) {
				out.Observe(root.self, dep)
				d.Forget(key.self, dep)
			}
		}
	}
	return out
}

// observe records an edge in the tree that currently holds source.
func observe(source, dependent Element) {
	source.base().dependencies().Observe(source, dependent)
}

func forget(source, dependent Element) {
	if deps := source.base().top().deps; deps != nil {
		deps.Forget(source, dependent)
	}
}
