package pit

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/orchard/internal/logging"
	"github.com/aretw0/orchard/pkg/datamodel"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/registry"
	"github.com/aretw0/orchard/pkg/script"
)

// Compiler turns a Document into a domain.Dom.
type Compiler struct {
	registry  *registry.Registry
	evaluator script.Evaluator
	logger    *slog.Logger
}

// Option configures the Compiler.
type Option func(*Compiler)

// WithRegistry sets the registry publishers are instantiated from.
func WithRegistry(r *registry.Registry) Option {
	return func(c *Compiler) {
		c.registry = r
	}
}

// WithEvaluator sets the evaluator attached to every compiled data model, used by scripted padding.
func WithEvaluator(e script.Evaluator) Option {
	return func(c *Compiler) {
		c.evaluator = e
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCompiler creates a compiler. Without a registry, tests that bind publishers fail to compile.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds the Dom. Every problem found is reported in one *AggregateError.
func (c *Compiler) Compile(doc *Document) (*domain.Dom, error) {
	var errs problems
	dom := domain.NewDom(doc.Name)
	dom.Agents = append([]string(nil), doc.Agents...)

	c.dataModels(dom, doc.DataModels, &errs)
	c.stateModels(dom, doc.StateModels, &errs)
	c.tests(dom, doc.Tests, &errs)

	if err := errs.err(); err != nil {
		return nil, err
	}
	for _, w := range Warnings(dom) {
		c.logger.Warn("pit warning", "detail", w)
	}
	c.logger.Debug("pit compiled",
		"data_models", len(dom.DataModels()),
		"state_models", len(dom.StateModels()),
		"tests", len(dom.Tests()))
	return dom, nil
}

func (c *Compiler) dataModels(dom *domain.Dom, specs []DataModelSpec, errs *problems) {
	byName := make(map[string]DataModelSpec, len(specs))
	for _, s := range specs {
		if _, dup := byName[s.Name]; dup {
			errs.add(s.Name, "duplicate data model")
			continue
		}
		byName[s.Name] = s
	}

	for _, s := range specs {
		children, err := inherited(s, byName, nil)
		if err != nil {
			errs.add(s.Name, "%v", err)
			continue
		}

		model := datamodel.NewDataModel(s.Name)
		model.Ref = s.Ref
		for _, cs := range children {
			e, ok := buildElement(s.Name, cs, errs)
			if !ok {
				continue
			}
			if err := model.Append(e); err != nil {
				errs.add(s.Name, "%v", err)
			}
		}
		bindElements(model, model, children, errs)
		if c.evaluator != nil {
			model.SetEvaluator(c.evaluator)
		}

		if dom.DataModel(s.Name) != nil {
			continue
		}
		if err := dom.AddDataModel(model); err != nil {
			errs.add(s.Name, "%v", err)
		}
	}
}

// inherited resolves Ref chains: base children first, own children replacing same-named ones.
func inherited(s DataModelSpec, byName map[string]DataModelSpec, seen map[string]bool) ([]ElementSpec, error) {
	if s.Ref == "" {
		return s.Children, nil
	}
	if seen == nil {
		seen = make(map[string]bool)
	}
	if seen[s.Name] {
		return nil, fmt.Errorf("data model ref cycle through %q", s.Name)
	}
	seen[s.Name] = true

	base, ok := byName[s.Ref]
	if !ok {
		return nil, fmt.Errorf("ref %q is not a data model", s.Ref)
	}
	children, err := inherited(base, byName, seen)
	if err != nil {
		return nil, err
	}

	out := append([]ElementSpec(nil), children...)
	for _, own := range s.Children {
		replaced := false
		for i := range out {
			if out[i].Name == own.Name {
				out[i] = own
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, own)
		}
	}
	return out, nil
}

func buildElement(path string, s ElementSpec, errs *problems) (datamodel.Element, bool) {
	path = path + "." + s.Name
	if s.Name == "" {
		errs.add(path, "element has no name")
		return nil, false
	}

	switch s.Type {
	case "block", "":
		b := datamodel.NewBlock(s.Name)
		for _, cs := range s.Children {
			child, ok := buildElement(path, cs, errs)
			if !ok {
				continue
			}
			if err := b.Append(child); err != nil {
				errs.add(path, "%v", err)
			}
		}
		return b, true

	case "number":
		if s.Size <= 0 || s.Size > 64 {
			errs.add(path, "number size %d is outside 1..64", s.Size)
			return nil, false
		}
		n := datamodel.NewNumber(s.Name, s.Size, 0)
		n.Signed = s.Signed
		n.LittleEndian = s.LittleEndian
		if s.Value != "" {
			if err := n.SetDefaultValue(s.Value); err != nil {
				errs.add(path, "%v", err)
				return nil, false
			}
		}
		return n, true

	case "blob":
		b := datamodel.NewBlob(s.Name, []byte(s.Value))
		b.Length = s.Length
		return b, true

	case "string":
		str := datamodel.NewString(s.Name, s.Value)
		str.Length = s.Length
		return str, true

	case "padding":
		if s.LengthCalc != "" {
			return datamodel.NewScriptedPadding(s.Name, s.LengthCalc), true
		}
		return datamodel.NewPadding(s.Name, s.Alignment), true
	}

	errs.add(path, "unknown element type %q", s.Type)
	return nil, false
}

// bindElements resolves relations and alignment targets once the whole model exists.
func bindElements(model *datamodel.DataModel, container datamodel.Container, specs []ElementSpec, errs *problems) {
	for _, s := range specs {
		e := container.Child(s.Name)
		if e == nil {
			continue
		}
		path := e.FullName()

		for _, rs := range s.Relations {
			kind, err := datamodel.ParseRelationKind(rs.Type)
			if err != nil {
				errs.add(path, "%v", err)
				continue
			}
			of := model.Find(rs.Of)
			if of == nil {
				errs.add(path, "relation %s of %q: no such element", kind, rs.Of)
				continue
			}
			if _, err := datamodel.Relate(kind, e, of); err != nil {
				errs.add(path, "%v", err)
			}
		}

		if p, ok := e.(*datamodel.Padding); ok && s.AlignedTo != "" {
			target := model.Find(s.AlignedTo)
			if target == nil {
				errs.add(path, "alignedTo %q: no such element", s.AlignedTo)
			} else {
				p.SetAlignedTo(target)
			}
		}

		if c, ok := e.(datamodel.Container); ok {
			bindElements(model, c, s.Children, errs)
		}
	}
}

func (c *Compiler) stateModels(dom *domain.Dom, specs []StateModelSpec, errs *problems) {
	for _, s := range specs {
		sm := domain.NewStateModel(s.Name, s.Initial)
		for _, ss := range s.States {
			state := domain.NewState(ss.Name)
			for _, as := range ss.Actions {
				if a, ok := buildAction(dom, s.Name+"."+ss.Name, as, errs); ok {
					state.Append(a)
				}
			}
			if err := sm.AddState(state); err != nil {
				errs.add(s.Name+"."+ss.Name, "%v", err)
			}
		}
		if err := dom.AddStateModel(sm); err != nil {
			errs.add(s.Name, "%v", err)
		}
	}
}

func buildAction(dom *domain.Dom, path string, s ActionSpec, errs *problems) (*domain.Action, bool) {
	path = path + "." + s.Name
	kind := domain.ActionKind(s.Type)
	if !kind.Valid() {
		errs.add(path, "unknown action type %q", s.Type)
		return nil, false
	}

	a := domain.NewAction(s.Name, kind)
	a.When = s.When
	a.Publisher = s.Publisher
	a.OnStart = s.OnStart
	a.OnComplete = s.OnComplete
	a.Ref = s.Ref
	a.Method = s.Method
	a.Property = s.Property
	a.SetXpath = s.SetXpath
	a.ValueXpath = s.ValueXpath

	if s.DataModel != "" {
		m := dom.DataModel(s.DataModel)
		if m == nil {
			errs.add(path, "data model %q not found", s.DataModel)
			return nil, false
		}
		a.SetTemplate(m)
	}

	if s.Data != nil {
		ds := &domain.DataSet{Name: s.Data.Name, FileNames: append([]string(nil), s.Data.Files...)}
		names := make([]string, 0, len(s.Data.Fields))
		for name := range s.Data.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ds.Fields = append(ds.Fields, domain.DataField{Name: name, Value: s.Data.Fields[name]})
		}
		a.DataSet = ds
	}

	for _, ps := range s.Params {
		m := dom.DataModel(ps.DataModel)
		if m == nil {
			errs.add(path+"."+ps.Name, "data model %q not found", ps.DataModel)
			continue
		}
		p := domain.NewActionParameter(ps.Name, m)
		if ps.Type != "" {
			p.Type = ps.Type
		}
		a.AddParameter(p)
	}

	if s.Result != "" {
		m := dom.DataModel(s.Result)
		if m == nil {
			errs.add(path, "result data model %q not found", s.Result)
		} else {
			a.SetResult(domain.NewActionResult(m))
		}
	}
	return a, true
}

func (c *Compiler) tests(dom *domain.Dom, specs []TestSpec, errs *problems) {
	for _, s := range specs {
		sm := dom.StateModel(s.StateModel)
		if sm == nil {
			errs.add(s.Name, "state model %q not found", s.StateModel)
			continue
		}

		test := domain.NewTest(s.Name, sm)
		test.Agents = append([]string(nil), s.Agents...)
		if err := applyOptions(&test.Options, s.Options); err != nil {
			errs.add(s.Name, "%v", err)
		}

		for _, ps := range s.Publishers {
			if c.registry == nil {
				errs.add(s.Name+"."+ps.Name, "no publisher registry configured")
				continue
			}
			pub, err := c.registry.New(ps.Class, ps.Params)
			if err != nil {
				errs.add(s.Name+"."+ps.Name, "%v", err)
				continue
			}
			if err := test.AddPublisher(ps.Name, pub); err != nil {
				errs.add(s.Name, "%v", err)
			}
		}

		if err := dom.AddTest(test); err != nil {
			errs.add(s.Name, "%v", err)
		}
	}
}

func applyOptions(o *domain.Options, s OptionsSpec) error {
	if s.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative")
	}
	if s.Iterations > 0 {
		o.Iterations = s.Iterations
	}
	if s.AgentCallTimeout != "" {
		d, err := time.ParseDuration(s.AgentCallTimeout)
		if err != nil {
			return fmt.Errorf("agentCallTimeout: %w", err)
		}
		o.AgentCallTimeout = d
	}
	if s.AgentPollInterval != "" {
		d, err := time.ParseDuration(s.AgentPollInterval)
		if err != nil {
			return fmt.Errorf("agentPollInterval: %w", err)
		}
		o.AgentPollInterval = d
	}
	o.StopOnSoftFailure = s.StopOnSoftFailure
	return nil
}
