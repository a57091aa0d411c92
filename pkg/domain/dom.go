package domain

import (
	"fmt"

	"github.com/aretw0/orchard/pkg/datamodel"
)

// Dom is the document root of a loaded pit.
type Dom struct {
	Name   string
	Agents []string

	dataModels  []*datamodel.DataModel
	stateModels []*StateModel
	tests       []*Test
}

// NewDom creates an empty document.
func NewDom(name string) *Dom {
	return &Dom{Name: name}
}

// AddDataModel registers a data-model template and attaches it to the document.
func (d *Dom) AddDataModel(m *datamodel.DataModel) error {
	if d.DataModel(m.Name()) != nil {
		return fmt.Errorf("data model %q already defined", m.Name())
	}
	m.AttachDocument(d)
	d.dataModels = append(d.dataModels, m)
	return nil
}

// DataModel returns the template with the given name, or nil.
func (d *Dom) DataModel(name string) *datamodel.DataModel {
	for _, m := range d.dataModels {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// DataModels returns the templates in definition order.
func (d *Dom) DataModels() []*datamodel.DataModel {
	return append([]*datamodel.DataModel(nil), d.dataModels...)
}

// AddStateModel registers a state model.
func (d *Dom) AddStateModel(m *StateModel) error {
	if d.StateModel(m.Name) != nil {
		return fmt.Errorf("state model %q already defined", m.Name)
	}
	d.stateModels = append(d.stateModels, m)
	return nil
}

// StateModel returns the state model with the given name, or nil.
func (d *Dom) StateModel(name string) *StateModel {
	for _, m := range d.stateModels {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// StateModels returns the state models in definition order.
func (d *Dom) StateModels() []*StateModel {
	return append([]*StateModel(nil), d.stateModels...)
}

// AddTest registers a test.
func (d *Dom) AddTest(t *Test) error {
	if d.Test(t.Name) != nil {
		return fmt.Errorf("test %q already defined", t.Name)
	}
	d.tests = append(d.tests, t)
	return nil
}

// Test returns the test with the given name, or nil.
func (d *Dom) Test(name string) *Test {
	for _, t := range d.tests {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Tests returns the tests in definition order.
func (d *Dom) Tests() []*Test {
	return append([]*Test(nil), d.tests...)
}
