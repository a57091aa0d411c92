package dsl_test

import (
	"testing"

	"github.com/aretw0/orchard/pkg/adapters/memory"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/dsl"
	"github.com/aretw0/orchard/pkg/pit"
	"github.com/aretw0/orchard/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginPit() *dsl.Builder {
	b := dsl.New("login")

	b.DataModel("Login").
		Number("Length", 8, 0).SizeOf("Body.User").
		Block("Body", func(m *dsl.ModelBuilder) {
			m.String("User", "guest").
				Padding("Pad", 16)
		}).
		Number("Count", 16, 0).LittleEndian().CountOf("Body")

	b.DataModel("Reply").
		Blob("Code", []byte{0}).Length(1)

	b.StateModel("Proto", "Init").
		State("Init").
		Output("Send", "Login").Field("Body.User", "root").
		Input("Recv", "Reply").Publisher("tcp").
		ChangeState("Next", "Done").When("true")

	b.StateModel("Proto", "Init").
		State("Done").
		Call("Restart", "Restart").Publisher(domain.AgentPublisher).
		Close("Close")

	b.Agents("local")
	b.Test("Default", "Proto").
		Publisher("tcp", "memory", nil).
		Iterations(3)

	return b
}

func TestBuilder_Document(t *testing.T) {
	doc := loginPit().Document()

	require.Len(t, doc.DataModels, 2)
	login := doc.DataModels[0]
	assert.Equal(t, "Login", login.Name)
	require.Len(t, login.Children, 3)
	assert.Equal(t, []pit.RelationSpec{{Type: "size", Of: "Body.User"}}, login.Children[0].Relations)
	assert.Len(t, login.Children[1].Children, 2)
	assert.True(t, login.Children[2].LittleEndian)

	require.Len(t, doc.StateModels, 1)
	require.Len(t, doc.StateModels[0].States, 2)
	init := doc.StateModels[0].States[0]
	require.Len(t, init.Actions, 3)
	assert.Equal(t, map[string]string{"Body.User": "root"}, init.Actions[0].Data.Fields)
	assert.Equal(t, "tcp", init.Actions[1].Publisher)
	assert.Equal(t, "true", init.Actions[2].When)

	require.Len(t, doc.Tests, 1)
	assert.Equal(t, 3, doc.Tests[0].Options.Iterations)
}

func TestBuilder_BuildRoundTrips(t *testing.T) {
	loader, err := loginPit().Build()
	require.NoError(t, err)

	doc, err := pit.Load(loader)
	require.NoError(t, err)

	reg := registry.NewRegistry()
	reg.Register("memory", func(map[string]any) (domain.Publisher, error) {
		return memory.NewPublisher(), nil
	})
	dom, err := pit.NewCompiler(pit.WithRegistry(reg)).Compile(doc)
	require.NoError(t, err)
	require.NoError(t, pit.Validate(dom))

	// Length, "guest" padded to 16 bits, count of Body's two children, little endian.
	assert.Equal(t, []byte{5, 'g', 'u', 'e', 's', 't', 0, 2, 0}, dom.DataModel("Login").Value().Bytes())

	send := dom.StateModel("Proto").State("Init").Action("Send")
	require.NoError(t, send.Reset())
	assert.Equal(t, []byte{4, 'r', 'o', 'o', 't', 2, 0}, send.Model().Value().Bytes())
	assert.Equal(t, 3, dom.Test("Default").Options.Iterations)
}
