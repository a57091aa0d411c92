package domain

import (
	"fmt"

	"github.com/antchfx/xpath"
	"github.com/aretw0/orchard/pkg/datamodel"
	"github.com/spf13/cast"
)

// Select evaluates an XPath expression over the document and returns the data elements it
// matches, in document order.
//
// Nodes are named after the entities they represent, so "//Login/Recv//Token" selects the
// element Token in the working model of action Recv of state Login. Every node carries a
// "name" and a "type" attribute (statemodel, state, action, param, result, datamodel,
// block, number, blob, string, padding).
func (d *Dom) Select(expr string) ([]datamodel.Element, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", expr, err)
	}

	root := d.selectorTree()
	iter := compiled.Select(&navigator{root: root, cur: root, attr: -1})

	var out []datamodel.Element
	seen := make(map[*selNode]bool)
	for iter.MoveNext() {
		nav, ok := iter.Current().(*navigator)
		if !ok || nav.cur.element == nil || seen[nav.cur] {
			continue
		}
		seen[nav.cur] = true
		out = append(out, nav.cur.element)
	}
	return out, nil
}

// CompileSelector reports whether expr is a valid selector.
func CompileSelector(expr string) error {
	if _, err := xpath.Compile(expr); err != nil {
		return fmt.Errorf("invalid selector %q: %w", expr, err)
	}
	return nil
}

type selAttr struct {
	name  string
	value string
}

type selNode struct {
	name     string
	kind     xpath.NodeType
	attrs    []selAttr
	parent   *selNode
	children []*selNode
	index    int
	element  datamodel.Element
}

func (n *selNode) add(child *selNode) *selNode {
	child.parent = n
	child.index = len(n.children)
	n.children = append(n.children, child)
	return child
}

func entity(name, typ string) *selNode {
	return &selNode{
		name:  name,
		kind:  xpath.ElementNode,
		attrs: []selAttr{{"name", name}, {"type", typ}},
	}
}

func (d *Dom) selectorTree() *selNode {
	root := &selNode{kind: xpath.RootNode}
	for _, sm := range d.stateModels {
		smNode := root.add(entity(sm.Name, "statemodel"))
		for _, s := range sm.states {
			sNode := smNode.add(entity(s.Name, "state"))
			for _, a := range s.actions {
				aNode := sNode.add(entity(a.Name, "action"))
				aNode.attrs = append(aNode.attrs, selAttr{"kind", string(a.Kind)})
				if a.model != nil {
					addElement(aNode, a.model)
				}
				for _, p := range a.Parameters {
					pNode := aNode.add(entity(p.Name, "param"))
					if p.model != nil {
						addElement(pNode, p.model)
					}
				}
				if a.Result != nil && a.Result.model != nil {
					rNode := aNode.add(entity("Result", "result"))
					addElement(rNode, a.Result.model)
				}
			}
		}
	}
	return root
}

func addElement(parent *selNode, e datamodel.Element) {
	n := parent.add(entity(e.Name(), elementType(e)))
	n.element = e
	if c, ok := e.(datamodel.Container); ok {
		for _, child := range c.Children() {
			addElement(n, child)
		}
	}
}

func elementType(e datamodel.Element) string {
	switch e.(type) {
	case *datamodel.DataModel:
		return "datamodel"
	case *datamodel.Block:
		return "block"
	case *datamodel.Number:
		return "number"
	case *datamodel.Blob:
		return "blob"
	case *datamodel.String:
		return "string"
	case *datamodel.Padding:
		return "padding"
	}
	return "element"
}

// navigator implements xpath.NodeNavigator over a selNode snapshot.
type navigator struct {
	root *selNode
	cur  *selNode
	attr int
}

func (n *navigator) NodeType() xpath.NodeType {
	if n.attr >= 0 {
		return xpath.AttributeNode
	}
	return n.cur.kind
}

func (n *navigator) LocalName() string {
	if n.attr >= 0 {
		return n.cur.attrs[n.attr].name
	}
	return n.cur.name
}

func (n *navigator) Prefix() string { return "" }

func (n *navigator) Value() string {
	if n.attr >= 0 {
		return n.cur.attrs[n.attr].value
	}
	if n.cur.element == nil {
		return ""
	}
	switch v := n.cur.element.DefaultValue().(type) {
	case []byte:
		return string(v)
	case *datamodel.BitStream:
		return string(v.Bytes())
	default:
		return cast.ToString(v)
	}
}

func (n *navigator) Copy() xpath.NodeNavigator {
	c := *n
	return &c
}

func (n *navigator) MoveToRoot() {
	n.cur = n.root
	n.attr = -1
}

func (n *navigator) MoveToParent() bool {
	if n.attr >= 0 {
		n.attr = -1
		return true
	}
	if n.cur.parent == nil {
		return false
	}
	n.cur = n.cur.parent
	return true
}

func (n *navigator) MoveToNextAttribute() bool {
	if n.attr+1 >= len(n.cur.attrs) {
		return false
	}
	n.attr++
	return true
}

func (n *navigator) MoveToChild() bool {
	if n.attr >= 0 || len(n.cur.children) == 0 {
		return false
	}
	n.cur = n.cur.children[0]
	return true
}

func (n *navigator) MoveToFirst() bool {
	if n.attr >= 0 || n.cur.parent == nil {
		return false
	}
	n.cur = n.cur.parent.children[0]
	return true
}

func (n *navigator) MoveToNext() bool {
	if n.attr >= 0 || n.cur.parent == nil {
		return false
	}
	siblings := n.cur.parent.children
	if n.cur.index+1 >= len(siblings) {
		return false
	}
	n.cur = siblings[n.cur.index+1]
	return true
}

func (n *navigator) MoveToPrevious() bool {
	if n.attr >= 0 || n.cur.parent == nil || n.cur.index == 0 {
		return false
	}
	n.cur = n.cur.parent.children[n.cur.index-1]
	return true
}

func (n *navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*navigator)
	if !ok || o.root != n.root {
		return false
	}
	n.cur = o.cur
	n.attr = o.attr
	return true
}
