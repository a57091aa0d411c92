package pit

import (
	"fmt"

	"github.com/aretw0/orchard/pkg/datamodel"
	"github.com/aretw0/orchard/pkg/domain"
)

// Validate checks what Compile cannot see in isolation: change-state targets, publisher
// names against every test that runs the action, slurp selectors, templates required by
// data-carrying kinds and relation holders. All problems are reported together.
func Validate(dom *domain.Dom) error {
	var errs problems

	for _, m := range dom.DataModels() {
		validateRelations(m, &errs)
	}

	for _, sm := range dom.StateModels() {
		if _, err := sm.InitialState(); err != nil {
			errs.add(sm.Name, "%v", err)
		}
		for _, a := range sm.Actions() {
			validateAction(sm, a, &errs)
		}
	}

	for _, t := range dom.Tests() {
		validateTest(dom, t, &errs)
	}
	return errs.err()
}

// Warnings lists accepted constructs that have no effect at run time. Data set files are
// recorded and serialized but never loaded; only inline fields are applied.
func Warnings(dom *domain.Dom) []string {
	var out []string
	for _, sm := range dom.StateModels() {
		for _, a := range sm.Actions() {
			if a.DataSet != nil && len(a.DataSet.FileNames) > 0 {
				out = append(out, fmt.Sprintf("%s: data files %v are not loaded, only inline fields apply",
					actionPath(sm, a), a.DataSet.FileNames))
			}
		}
	}
	return out
}

func actionPath(sm *domain.StateModel, a *domain.Action) string {
	if s := a.State(); s != nil {
		return sm.Name + "." + s.Name + "." + a.Name
	}
	return sm.Name + "." + a.Name
}

func validateAction(sm *domain.StateModel, a *domain.Action, errs *problems) {
	path := actionPath(sm, a)

	if a.Kind.HasData() && a.Template() == nil {
		errs.add(path, "%s action needs a data model", a.Kind)
	}

	switch a.Kind {
	case domain.KindChangeState:
		if sm.State(a.Ref) == nil {
			errs.add(path, "changeState target %q is not a state of %q", a.Ref, sm.Name)
		}
	case domain.KindSlurp:
		for _, sel := range []string{a.ValueXpath, a.SetXpath} {
			if sel == "" {
				errs.add(path, "slurp needs both valueXpath and setXpath")
				break
			}
			if err := domain.CompileSelector(sel); err != nil {
				errs.add(path, "selector %q: %v", sel, err)
			}
		}
	case domain.KindCall:
		if a.Method == "" {
			errs.add(path, "call action needs a method")
		}
	case domain.KindGetProperty, domain.KindSetProperty:
		if a.Property == "" {
			errs.add(path, "%s action needs a property", a.Kind)
		}
	}

	for _, p := range a.Parameters {
		switch p.Type {
		case "in", "out", "inout":
		default:
			errs.add(path+"."+p.Name, "parameter type %q is not in, out or inout", p.Type)
		}
	}
}

func validateTest(dom *domain.Dom, t *domain.Test, errs *problems) {
	bound := make(map[string]bool)
	for _, np := range t.Publishers() {
		bound[np.Name] = true
	}
	if len(bound) == 0 {
		errs.add(t.Name, "test binds no publisher")
	}

	agents := len(t.Agents) > 0 || len(dom.Agents) > 0
	for _, a := range t.StateModel.Actions() {
		switch a.Publisher {
		case "":
		case domain.AgentPublisher:
			if a.Kind == domain.KindCall && !agents {
				errs.add(actionPath(t.StateModel, a), "calls %s but test %q has no agents", domain.AgentPublisher, t.Name)
			}
		default:
			if !bound[a.Publisher] {
				errs.add(actionPath(t.StateModel, a), "publisher %q is not bound by test %q", a.Publisher, t.Name)
			}
		}
	}
}

func validateRelations(m *datamodel.DataModel, errs *problems) {
	_ = m.Walk(func(e datamodel.Element) error {
		for _, r := range e.Relations().All() {
			if r.From != e {
				continue
			}
			if r.Of == nil {
				errs.add(e.FullName(), "%s relation has no target", r.Kind)
				continue
			}
			if _, ok := r.From.(*datamodel.Number); !ok {
				errs.add(e.FullName(), "%s relation is held by %q, which is not a number", r.Kind, e.FullName())
			}
			if r.Kind == datamodel.CountOf {
				if _, ok := r.Of.(datamodel.Container); !ok {
					errs.add(e.FullName(), "count-of target %q is not a block", r.Of.FullName())
				}
			}
		}
		return nil
	})
}
