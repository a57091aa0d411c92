package dsl

import (
	"fmt"

	"github.com/aretw0/orchard/pkg/adapters/memory"
	"github.com/aretw0/orchard/pkg/pit"
	"gopkg.in/yaml.v3"
)

// Builder manages the pit construction.
type Builder struct {
	name        string
	agents      []string
	models      []*ModelBuilder
	stateModels []*StateModelBuilder
	tests       []*TestBuilder
}

// New creates a new pit builder.
func New(name string) *Builder {
	return &Builder{name: name}
}

// Agents declares the agents of the pit.
func (b *Builder) Agents(names ...string) *Builder {
	b.agents = append(b.agents, names...)
	return b
}

// DataModel creates a new data model in the pit.
// If the model already exists, it returns the existing builder.
func (b *Builder) DataModel(name string) *ModelBuilder {
	for _, m := range b.models {
		if m.spec.Name == name {
			return m
		}
	}
	m := &ModelBuilder{spec: pit.DataModelSpec{Name: name}}
	m.children = &m.spec.Children
	b.models = append(b.models, m)
	return m
}

// StateModel creates a new state model starting at initial.
// If the state model already exists, it returns the existing builder.
func (b *Builder) StateModel(name, initial string) *StateModelBuilder {
	for _, sm := range b.stateModels {
		if sm.name == name {
			return sm
		}
	}
	sm := &StateModelBuilder{name: name, initial: initial}
	b.stateModels = append(b.stateModels, sm)
	return sm
}

// Test creates a new test running stateModel.
// If the test already exists, it returns the existing builder.
func (b *Builder) Test(name, stateModel string) *TestBuilder {
	for _, t := range b.tests {
		if t.spec.Name == name {
			return t
		}
	}
	t := &TestBuilder{spec: pit.TestSpec{Name: name, StateModel: stateModel}}
	b.tests = append(b.tests, t)
	return t
}

// Document assembles the pit document.
func (b *Builder) Document() *pit.Document {
	doc := &pit.Document{Name: b.name, Agents: append([]string(nil), b.agents...)}
	for _, m := range b.models {
		doc.DataModels = append(doc.DataModels, m.spec)
	}
	for _, sm := range b.stateModels {
		doc.StateModels = append(doc.StateModels, sm.build())
	}
	for _, t := range b.tests {
		doc.Tests = append(doc.Tests, t.spec)
	}
	return doc
}

// Build serializes the pit into a MemoryLoader holding a single document.
func (b *Builder) Build() (*memory.Loader, error) {
	data, err := yaml.Marshal(b.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	name := b.name
	if name == "" {
		name = "pit"
	}
	return memory.NewLoader(map[string]string{name: string(data)}), nil
}
