package datamodel

// Clone returns a deep copy of the model. Relations, invalidation edges and alignment
// targets that point inside the model are remapped to the copy; cached values are kept.
// The copy has no owner and no document.
func (m *DataModel) Clone() *DataModel {
	c := &cloner{
		elements:  make(map[*node]Element),
		relations: make(map[*Relation]*Relation),
	}
	out := c.element(m, nil).(*DataModel)
	out.Ref = m.Ref
	out.evaluator = m.evaluator

	for old, copied := range c.elements {
		c.relationsOf(old, copied.base())
	}
	if deps := m.deps; deps != nil {
		out.deps = newDependencies()
		for src, list := range deps.edges {
			nsrc, ok := c.elements[src]
			if !ok {
				continue
			}
			for _, d := range list {
				if nd, ok := c.elements[d.base()]; ok {
					out.deps.Observe(nsrc, nd)
				}
			}
		}
	}
	return out
}

type cloner struct {
	elements  map[*node]Element
	relations map[*Relation]*Relation
}

func (c *cloner) mapped(e Element) Element {
	if e == nil {
		return nil
	}
	if n, ok := c.elements[e.base()]; ok {
		return n
	}
	return e
}

func (c *cloner) element(e Element, parent Container) Element {
	var out Element
	switch v := e.(type) {
	case *DataModel:
		n := &DataModel{}
		n.init(n, v.name)
		c.block(&v.Block, &n.Block, n)
		out = n
	case *Block:
		n := &Block{}
		n.init(n, v.name)
		c.block(v, n, n)
		out = n
	case *Number:
		n := &Number{Size: v.Size, Signed: v.Signed, LittleEndian: v.LittleEndian, value: v.value}
		n.init(n, v.name)
		out = n
	case *Blob:
		n := &Blob{Length: v.Length, data: append([]byte(nil), v.data...)}
		n.init(n, v.name)
		out = n
	case *String:
		n := &String{Length: v.Length, value: v.value}
		n.init(n, v.name)
		out = n
	case *Padding:
		n := &Padding{Aligned: v.Aligned, Alignment: v.Alignment, LengthCalc: v.LengthCalc}
		n.init(n, v.name)
		out = n
	default:
		panic("datamodel: cannot clone element type")
	}

	src, dst := e.base(), out.base()
	dst.parent = parent
	dst.dirty = src.dirty
	dst.cache = src.cache.Clone()
	dst.err = src.err
	c.elements[src] = out
	return out
}

func (c *cloner) block(src, dst *Block, self Container) {
	if src.override != nil {
		dst.override = src.override.Clone()
	}
	dst.children = make([]Element, 0, len(src.children))
	for _, child := range src.children {
		dst.children = append(dst.children, c.element(child, self))
	}
}

func (c *cloner) relationsOf(old *node, copied *node) {
	for _, r := range old.relations.list {
		nr, ok := c.relations[r]
		if !ok {
			nr = &Relation{Kind: r.Kind, Of: c.mapped(r.Of), From: c.mapped(r.From)}
			if r.parent != nil {
				nr.parent = c.mapped(r.parent)
			}
			c.relations[r] = nr
		}
		copied.relations.list = append(copied.relations.list, nr)
	}

	if p, ok := old.self.(*Padding); ok {
		np := copied.self.(*Padding)
		if p.alignedTo != nil {
			np.alignedTo = c.mapped(p.alignedTo)
		}
		if p.subscribed != nil {
			np.subscribed = c.mapped(p.subscribed)
		}
	}
}
