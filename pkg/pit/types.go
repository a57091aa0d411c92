package pit

// Document is one pit file. A pit may be split across documents; Merge joins them.
type Document struct {
	Name        string           `yaml:"name,omitempty" mapstructure:"name"`
	Agents      []string         `yaml:"agents,omitempty" mapstructure:"agents"`
	DataModels  []DataModelSpec  `yaml:"dataModels,omitempty" mapstructure:"dataModels"`
	StateModels []StateModelSpec `yaml:"stateModels,omitempty" mapstructure:"stateModels"`
	Tests       []TestSpec       `yaml:"tests,omitempty" mapstructure:"tests"`
}

// DataModelSpec describes a top-level data model. With Ref set, the model starts from the
// referenced model's children; children of the same name replace inherited ones.
type DataModelSpec struct {
	Name     string        `yaml:"name" mapstructure:"name"`
	Ref      string        `yaml:"ref,omitempty" mapstructure:"ref"`
	Children []ElementSpec `yaml:"children,omitempty" mapstructure:"children"`
}

// ElementSpec describes one element. Type is one of block, number, blob, string, padding.
type ElementSpec struct {
	Name string `yaml:"name" mapstructure:"name"`
	Type string `yaml:"type" mapstructure:"type"`

	// number
	Size         int  `yaml:"size,omitempty" mapstructure:"size"`
	Signed       bool `yaml:"signed,omitempty" mapstructure:"signed"`
	LittleEndian bool `yaml:"littleEndian,omitempty" mapstructure:"littleEndian"`

	// number, blob, string
	Value  string `yaml:"value,omitempty" mapstructure:"value"`
	Length int    `yaml:"length,omitempty" mapstructure:"length"`

	// padding
	Alignment  int    `yaml:"alignment,omitempty" mapstructure:"alignment"`
	AlignedTo  string `yaml:"alignedTo,omitempty" mapstructure:"alignedTo"`
	LengthCalc string `yaml:"lengthCalc,omitempty" mapstructure:"lengthCalc"`

	// block
	Children []ElementSpec `yaml:"children,omitempty" mapstructure:"children"`

	Relations []RelationSpec `yaml:"relations,omitempty" mapstructure:"relations"`
}

// RelationSpec makes the element carrying it hold the size, offset or count of Of.
// Of is a dotted path from the data model.
type RelationSpec struct {
	Type string `yaml:"type" mapstructure:"type"`
	Of   string `yaml:"of" mapstructure:"of"`
}

// StateModelSpec describes a state model.
type StateModelSpec struct {
	Name    string      `yaml:"name" mapstructure:"name"`
	Initial string      `yaml:"initialState" mapstructure:"initialState"`
	States  []StateSpec `yaml:"states" mapstructure:"states"`
}

// StateSpec describes a state.
type StateSpec struct {
	Name    string       `yaml:"name" mapstructure:"name"`
	Actions []ActionSpec `yaml:"actions" mapstructure:"actions"`
}

// ActionSpec describes an action. DataModel names a top-level data model used as template.
type ActionSpec struct {
	Name       string `yaml:"name" mapstructure:"name"`
	Type       string `yaml:"type" mapstructure:"type"`
	When       string `yaml:"when,omitempty" mapstructure:"when"`
	Publisher  string `yaml:"publisher,omitempty" mapstructure:"publisher"`
	OnStart    string `yaml:"onStart,omitempty" mapstructure:"onStart"`
	OnComplete string `yaml:"onComplete,omitempty" mapstructure:"onComplete"`
	Ref        string `yaml:"ref,omitempty" mapstructure:"ref"`
	Method     string `yaml:"method,omitempty" mapstructure:"method"`
	Property   string `yaml:"property,omitempty" mapstructure:"property"`
	SetXpath   string `yaml:"setXpath,omitempty" mapstructure:"setXpath"`
	ValueXpath string `yaml:"valueXpath,omitempty" mapstructure:"valueXpath"`
	DataModel  string `yaml:"dataModel,omitempty" mapstructure:"dataModel"`

	Data   *DataSpec   `yaml:"data,omitempty" mapstructure:"data"`
	Params []ParamSpec `yaml:"params,omitempty" mapstructure:"params"`
	Result string      `yaml:"result,omitempty" mapstructure:"result"`
}

// DataSpec is the data set of an action.
type DataSpec struct {
	Name   string            `yaml:"name" mapstructure:"name"`
	Files  []string          `yaml:"files,omitempty" mapstructure:"files"`
	Fields map[string]string `yaml:"fields,omitempty" mapstructure:"fields"`
}

// ParamSpec is a call parameter.
type ParamSpec struct {
	Name      string `yaml:"name" mapstructure:"name"`
	Type      string `yaml:"type,omitempty" mapstructure:"type"`
	DataModel string `yaml:"dataModel" mapstructure:"dataModel"`
}

// TestSpec binds a state model to publishers.
type TestSpec struct {
	Name       string          `yaml:"name" mapstructure:"name"`
	StateModel string          `yaml:"stateModel" mapstructure:"stateModel"`
	Agents     []string        `yaml:"agents,omitempty" mapstructure:"agents"`
	Publishers []PublisherSpec `yaml:"publishers" mapstructure:"publishers"`
	Options    OptionsSpec     `yaml:"options,omitempty" mapstructure:"options"`
}

// PublisherSpec instantiates a publisher class under a name.
type PublisherSpec struct {
	Name   string         `yaml:"name" mapstructure:"name"`
	Class  string         `yaml:"class" mapstructure:"class"`
	Params map[string]any `yaml:"params,omitempty" mapstructure:"params"`
}

// OptionsSpec overrides domain.DefaultOptions. Durations use time.ParseDuration syntax.
type OptionsSpec struct {
	Iterations        int    `yaml:"iterations,omitempty" mapstructure:"iterations"`
	AgentCallTimeout  string `yaml:"agentCallTimeout,omitempty" mapstructure:"agentCallTimeout"`
	AgentPollInterval string `yaml:"agentPollInterval,omitempty" mapstructure:"agentPollInterval"`
	StopOnSoftFailure bool   `yaml:"stopOnSoftFailure,omitempty" mapstructure:"stopOnSoftFailure"`
}
