package domain

import (
	"fmt"

	"github.com/aretw0/orchard/pkg/datamodel"
)

// Action is one protocol step. Data-bearing kinds own a read-only template data model and a
// working copy that Reset replaces with a fresh clone of the template.
type Action struct {
	Name      string
	Kind      ActionKind
	Publisher string

	// When is a guard expression. The action only runs when it evaluates to true.
	When       string
	OnStart    string
	OnComplete string

	// Ref is the target state of a changeState action.
	Ref      string
	Method   string
	Property string

	SetXpath   string
	ValueXpath string

	DataSet    *DataSet
	Parameters []*ActionParameter
	Result     *ActionResult

	template *datamodel.DataModel
	model    *datamodel.DataModel
	state    *State
}

// NewAction creates an action of the given kind.
func NewAction(name string, kind ActionKind) *Action {
	return &Action{Name: name, Kind: kind}
}

// State returns the state holding the action.
func (a *Action) State() *State { return a.state }

// StateModel returns the state model holding the action's state, or nil.
func (a *Action) StateModel() *StateModel {
	if a.state == nil {
		return nil
	}
	return a.state.model
}

// Template returns the read-only template data model.
func (a *Action) Template() *datamodel.DataModel { return a.template }

// Model returns the working data model of the current iteration.
func (a *Action) Model() *datamodel.DataModel { return a.model }

// SetTemplate installs the template. Its value is generated once here since templates
// never change after load; the working copy starts as a clone of it.
func (a *Action) SetTemplate(m *datamodel.DataModel) {
	a.template = m
	a.model = nil
	if m == nil {
		return
	}
	m.Value()
	a.model = a.cloneTemplate(m)
}

// AddParameter appends a call parameter.
func (a *Action) AddParameter(p *ActionParameter) {
	p.action = a
	a.Parameters = append(a.Parameters, p)
}

// SetResult installs the model that receives the value returned by a call.
func (a *Action) SetResult(r *ActionResult) {
	if r != nil {
		r.action = a
	}
	a.Result = r
}

// Reset prepares the action for a new iteration.
func (a *Action) Reset() error {
	switch a.Kind {
	case KindInput, KindOutput, KindGetProperty, KindSetProperty:
		if a.template != nil {
			a.model = a.cloneTemplate(a.template)
			if err := a.DataSet.Apply(a.model); err != nil {
				return fmt.Errorf("action %q: %w", a.Name, err)
			}
		}
	case KindCall:
		for _, p := range a.Parameters {
			p.Reset()
		}
		if a.Result != nil {
			a.Result.Reset()
		}
	case KindStart, KindStop, KindOpen, KindClose, KindConnect, KindAccept, KindChangeState, KindSlurp:
	default:
		return &UnknownActionKindError{Action: a.Name, Kind: a.Kind}
	}
	return nil
}

func (a *Action) cloneTemplate(m *datamodel.DataModel) *datamodel.DataModel {
	working := m.Clone()
	working.SetOwner(a)
	working.DetachDocument()
	return working
}

// ActionParameter is one argument of a call action.
type ActionParameter struct {
	Name string
	// Type is the parameter direction: "in", "out" or "inout".
	Type    string
	DataSet *DataSet

	template *datamodel.DataModel
	model    *datamodel.DataModel
	action   *Action
}

// NewActionParameter creates a parameter whose value is described by template.
func NewActionParameter(name string, template *datamodel.DataModel) *ActionParameter {
	p := &ActionParameter{Name: name, Type: "in"}
	p.SetTemplate(template)
	return p
}

// SetTemplate installs the parameter template and clones the working copy from it.
func (p *ActionParameter) SetTemplate(m *datamodel.DataModel) {
	p.template = m
	p.model = nil
	if m != nil {
		m.Value()
		p.Reset()
	}
}

// Template returns the parameter template.
func (p *ActionParameter) Template() *datamodel.DataModel { return p.template }

// Model returns the working copy.
func (p *ActionParameter) Model() *datamodel.DataModel { return p.model }

// Reset replaces the working copy with a fresh clone of the template.
func (p *ActionParameter) Reset() {
	if p.template == nil {
		return
	}
	p.model = p.template.Clone()
	p.model.SetOwner(p)
	p.model.DetachDocument()
}

// Bytes renders the working copy.
func (p *ActionParameter) Bytes() []byte {
	if p.model == nil {
		return nil
	}
	return p.model.Value().Bytes()
}

// ActionResult holds the value returned by a call action.
type ActionResult struct {
	template *datamodel.DataModel
	model    *datamodel.DataModel
	action   *Action
}

// NewActionResult creates a result described by template.
func NewActionResult(template *datamodel.DataModel) *ActionResult {
	r := &ActionResult{template: template}
	r.Reset()
	return r
}

// Template returns the result template.
func (r *ActionResult) Template() *datamodel.DataModel { return r.template }

// Model returns the working copy.
func (r *ActionResult) Model() *datamodel.DataModel { return r.model }

// Reset replaces the working copy with a fresh clone of the template.
func (r *ActionResult) Reset() {
	if r.template == nil {
		return
	}
	r.model = r.template.Clone()
	r.model.SetOwner(r)
	r.model.DetachDocument()
}

// DataSet is data attached to an action: data file names (recorded, not loaded) and field overrides.
type DataSet struct {
	Name      string
	FileNames []string
	Fields    []DataField
}

// DataField overrides the element at Name (a dotted path) with Value.
type DataField struct {
	Name  string
	Value string
}

// Apply sets every field override on model. A nil data set is a no-op.
func (d *DataSet) Apply(model *datamodel.DataModel) error {
	if d == nil {
		return nil
	}
	for _, f := range d.Fields {
		e := model.Find(f.Name)
		if e == nil {
			return fmt.Errorf("data set %q: field %q not found in %q", d.Name, f.Name, model.Name())
		}
		if err := e.SetDefaultValue(f.Value); err != nil {
			return fmt.Errorf("data set %q: %w", d.Name, err)
		}
	}
	return nil
}

// Action returns the call action the parameter belongs to.
func (p *ActionParameter) Action() *Action { return p.action }

// Action returns the call action the result belongs to.
func (r *ActionResult) Action() *Action { return r.action }
