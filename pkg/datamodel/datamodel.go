package datamodel

import (
	"errors"
	"fmt"

	"github.com/aretw0/orchard/pkg/script"
)

// DataModel is the root container of an element tree. It carries what the whole tree
// shares: the invalidation graph, the expression evaluator, and the links to whatever
// owns the tree (an action) or addresses it (a document).
type DataModel struct {
	Block

	// Ref names the template this model was cloned from, if any.
	Ref string

	owner     any
	document  any
	evaluator script.Evaluator
}

// NewDataModel creates an empty model.
func NewDataModel(name string, children ...Element) *DataModel {
	m := &DataModel{}
	m.init(m, name)
	for _, c := range children {
		if err := m.Append(c); err != nil {
			panic(err)
		}
	}
	return m
}

// Owner returns the object that privately owns this model (an action's working copy).
func (m *DataModel) Owner() any { return m.owner }

// SetOwner records the private owner of the model.
func (m *DataModel) SetOwner(owner any) { m.owner = owner }

// Document returns the document that addresses this model by path, or nil once detached.
func (m *DataModel) Document() any { return m.document }

// AttachDocument makes the model addressable from a document root.
func (m *DataModel) AttachDocument(doc any) { m.document = doc }

// DetachDocument drops the document reference.
func (m *DataModel) DetachDocument() { m.document = nil }

// Evaluator returns the evaluator used by scripted elements of this model.
func (m *DataModel) Evaluator() script.Evaluator { return m.evaluator }

// SetEvaluator sets the evaluator used by scripted elements and invalidates the model.
func (m *DataModel) SetEvaluator(e script.Evaluator) {
	m.evaluator = e
	m.Invalidate()
}

// Dependencies returns the model's invalidation graph.
func (m *DataModel) Dependencies() *Dependencies { return m.dependencies() }

// Walk visits the model and every descendant in document order. Returning an error stops the walk.
func (m *DataModel) Walk(fn func(Element) error) error {
	return walk(m, fn)
}

func walk(e Element, fn func(Element) error) error {
	if err := fn(e); err != nil {
		return err
	}
	if c, ok := e.(Container); ok {
		for _, child := range c.Children() {
			if err := walk(child, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Render returns the model's bytes together with any errors recorded by elements while
// generating them. The bytes are valid even when an error is returned.
func (m *DataModel) Render() ([]byte, error) {
	out := m.Value().Bytes()

	var errs []error
	_ = m.Walk(func(e Element) error {
		if err := e.base().err; err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.FullName(), err))
		}
		return nil
	})
	return out, errors.Join(errs...)
}
