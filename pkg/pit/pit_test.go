package pit_test

import (
	"testing"
	"time"

	"github.com/aretw0/orchard/pkg/adapters/memory"
	"github.com/aretw0/orchard/pkg/datamodel"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/pit"
	"github.com/aretw0/orchard/pkg/registry"
	"github.com/aretw0/orchard/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginPit = `
name: login
agents: [local]
dataModels:
  - name: Login
    children:
      - name: Length
        type: number
        size: 8
        relations:
          - {type: size, of: User}
      - {name: User, type: string, value: guest}
      - name: Pad
        type: padding
        alignment: 32
  - name: AdminLogin
    ref: Login
    children:
      - {name: User, type: string, value: admin}
      - {name: Flags, type: number, size: "16", value: "0x0102"}
  - name: Reply
    children:
      - {name: Code, type: number, size: 8}
stateModels:
  - name: Proto
    initialState: Init
    states:
      - name: Init
        actions:
          - name: Send
            type: output
            dataModel: Login
            data:
              name: users
              fields: {User: root}
          - {name: Recv, type: input, dataModel: Reply, publisher: tcp}
          - {name: Next, type: changeState, ref: Done, when: "true"}
      - name: Done
        actions:
          - {name: Launch, type: call, method: Restart, publisher: Peach.Agent}
tests:
  - name: Default
    stateModel: Proto
    publishers:
      - {name: tcp, class: memory}
    options:
      iterations: 5
      agentCallTimeout: 2s
      stopOnSoftFailure: true
`

func memoryRegistry() *registry.Registry {
	r := registry.NewRegistry()
	r.Register("memory", func(map[string]any) (domain.Publisher, error) {
		return memory.NewPublisher(), nil
	})
	return r
}

func compile(t *testing.T, src string) *domain.Dom {
	t.Helper()
	doc, err := pit.Parse([]byte(src))
	require.NoError(t, err)
	dom, err := pit.NewCompiler(pit.WithRegistry(memoryRegistry())).Compile(doc)
	require.NoError(t, err)
	return dom
}

func TestCompile_DataModels(t *testing.T) {
	dom := compile(t, loginPit)

	login := dom.DataModel("Login")
	require.NotNil(t, login)
	assert.Equal(t, []byte{5, 'g', 'u', 'e', 's', 't', 0, 0}, login.Value().Bytes())
	assert.True(t, login.Find("User").Relations().HasOfSizeRelation())

	admin := dom.DataModel("AdminLogin")
	require.NotNil(t, admin)
	assert.Equal(t, "Login", admin.Ref)
	assert.Equal(t, int64(0x0102), admin.Find("Flags").DefaultValue())
	assert.Equal(t, []byte{5, 'a', 'd', 'm', 'i', 'n', 0x01, 0x02}, admin.Value().Bytes())
}

func TestCompile_StateModelsAndTests(t *testing.T) {
	dom := compile(t, loginPit)
	assert.Equal(t, []string{"local"}, dom.Agents)

	sm := dom.StateModel("Proto")
	require.NotNil(t, sm)
	send := sm.State("Init").Action("Send")
	require.NotNil(t, send)
	assert.Equal(t, domain.KindOutput, send.Kind)
	assert.Same(t, dom.DataModel("Login"), send.Template())
	require.NotNil(t, send.DataSet)
	assert.Equal(t, []domain.DataField{{Name: "User", Value: "root"}}, send.DataSet.Fields)

	next := sm.State("Init").Action("Next")
	assert.Equal(t, "Done", next.Ref)
	assert.Equal(t, "true", next.When)

	test := dom.Test("Default")
	require.NotNil(t, test)
	assert.Same(t, sm, test.StateModel)
	assert.Equal(t, 5, test.Options.Iterations)
	assert.Equal(t, 2*time.Second, test.Options.AgentCallTimeout)
	assert.Equal(t, domain.DefaultAgentPollInterval, test.Options.AgentPollInterval)
	assert.True(t, test.Options.StopOnSoftFailure)
	require.Len(t, test.Publishers(), 1)
	assert.Equal(t, "tcp", test.Publishers()[0].Name)

	assert.NoError(t, pit.Validate(dom))
}

func TestCompile_ScriptedPaddingUsesEvaluator(t *testing.T) {
	src := `
dataModels:
  - name: M
    children:
      - {name: Body, type: blob, value: abc}
      - {name: Pad, type: padding, lengthCalc: "4 * 4"}
`
	doc, err := pit.Parse([]byte(src))
	require.NoError(t, err)
	dom, err := pit.NewCompiler(pit.WithEvaluator(script.NewExprEvaluator())).Compile(doc)
	require.NoError(t, err)

	out, err := dom.DataModel("M").Render()
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 'c', 0, 0}, out)
}

func TestCompile_Problems(t *testing.T) {
	src := `
dataModels:
  - name: M
    children:
      - {name: N, type: number, size: 99}
      - {name: X, type: float}
      - {name: L, type: number, size: 8, relations: [{type: size, of: Missing}]}
  - name: Child
    ref: Nowhere
stateModels:
  - name: SM
    initialState: S
    states:
      - name: S
        actions:
          - {name: A, type: teleport}
          - {name: B, type: output, dataModel: Missing}
tests:
  - name: T
    stateModel: SM
    publishers:
      - {name: p, class: serial}
  - name: U
    stateModel: Missing
`
	doc, err := pit.Parse([]byte(src))
	require.NoError(t, err)
	_, err = pit.NewCompiler(pit.WithRegistry(memoryRegistry())).Compile(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, pit.ErrInvalidPit)
	assert.Len(t, pit.ValidationErrors(err), 8)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := pit.Parse([]byte("dataModels:\n  - name: M\n    colour: red\n"))
	assert.Error(t, err)

	_, err = pit.Parse([]byte("dataModels: [\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	src := `
agents: []
dataModels:
  - name: M
    children:
      - {name: Text, type: string}
stateModels:
  - name: SM
    initialState: Start
    states:
      - name: S
        actions:
          - {name: Jump, type: changeState, ref: Nowhere}
          - {name: Copy, type: slurp, valueXpath: "//[", setXpath: "//Text"}
          - {name: Send, type: output}
          - {name: Other, type: output, dataModel: M, publisher: udp}
          - {name: Launch, type: call, method: Go, publisher: Peach.Agent}
tests:
  - name: T
    stateModel: SM
    publishers:
      - {name: tcp, class: memory}
`
	dom := compile(t, src)
	err := pit.Validate(dom)
	require.Error(t, err)

	var messages []string
	for _, e := range pit.ValidationErrors(err) {
		messages = append(messages, e.Error())
	}
	assert.Len(t, messages, 6)
	assert.Contains(t, err.Error(), `state "Start" not found`)
	assert.Contains(t, err.Error(), `changeState target "Nowhere"`)
	assert.Contains(t, err.Error(), `selector "//["`)
	assert.Contains(t, err.Error(), "output action needs a data model")
	assert.Contains(t, err.Error(), `publisher "udp" is not bound`)
	assert.Contains(t, err.Error(), "has no agents")
}

func TestValidate_RelationHolderMustBeNumber(t *testing.T) {
	a := datamodel.NewString("A", "x")
	b := datamodel.NewString("B", "y")
	m := datamodel.NewDataModel("M", a, b)
	_, err := datamodel.Relate(datamodel.SizeOf, a, b)
	require.NoError(t, err)

	dom := domain.NewDom("pit")
	require.NoError(t, dom.AddDataModel(m))
	assert.ErrorContains(t, pit.Validate(dom), "not a number")
}

func TestLoad_MergesDocuments(t *testing.T) {
	loader := memory.NewLoader(map[string]string{
		"1-models":  "name: split\ndataModels:\n  - name: M\n    children:\n      - {name: V, type: number, size: 8, value: 7}\n",
		"2-machine": "stateModels:\n  - name: SM\n    initialState: S\n    states:\n      - name: S\n        actions:\n          - {name: Send, type: output, dataModel: M}\n",
	})

	doc, err := pit.Load(loader)
	require.NoError(t, err)
	assert.Equal(t, "split", doc.Name)

	dom, err := pit.NewCompiler().Compile(doc)
	require.NoError(t, err)
	assert.Same(t, dom.DataModel("M"), dom.StateModel("SM").State("S").Action("Send").Template())
}

func TestWarnings_DataFiles(t *testing.T) {
	doc, err := pit.Parse([]byte(`name: w
dataModels:
  - name: M
    children:
      - {name: Text, type: string, value: a}
stateModels:
  - name: SM
    initialState: Init
    states:
      - name: Init
        actions:
          - name: Send
            type: output
            dataModel: M
            data: {name: seeds, files: [a.bin, b.bin], fields: {Text: b}}
          - {name: Plain, type: output, dataModel: M}
`))
	require.NoError(t, err)
	dom, err := pit.NewCompiler().Compile(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"SM.Init.Send: data files [a.bin b.bin] are not loaded, only inline fields apply"}, pit.Warnings(dom))
}
