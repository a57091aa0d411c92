package domain_test

import (
	"context"
	"io"
	"testing"

	"github.com/aretw0/orchard/pkg/datamodel"
	"github.com/aretw0/orchard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopPublisher struct{ name string }

func (p *nopPublisher) Start(context.Context, *domain.Action) error  { return nil }
func (p *nopPublisher) Stop(context.Context, *domain.Action) error   { return nil }
func (p *nopPublisher) Open(context.Context, *domain.Action) error   { return nil }
func (p *nopPublisher) Close(context.Context, *domain.Action) error  { return nil }
func (p *nopPublisher) Accept(context.Context, *domain.Action) error { return nil }
func (p *nopPublisher) Input(context.Context, *domain.Action) (io.Reader, error) {
	return nil, io.EOF
}
func (p *nopPublisher) Output(context.Context, *domain.Action, []byte) error { return nil }
func (p *nopPublisher) Call(context.Context, *domain.Action, string, []*domain.ActionParameter) (any, error) {
	return nil, nil
}
func (p *nopPublisher) GetProperty(context.Context, *domain.Action, string) (any, error) {
	return nil, nil
}
func (p *nopPublisher) SetProperty(context.Context, *domain.Action, string, any) error { return nil }
func (p *nopPublisher) HasStarted() bool                                            { return true }
func (p *nopPublisher) IsOpen() bool                                                { return true }

func selectorDom(t *testing.T) *domain.Dom {
	t.Helper()

	recv := domain.NewAction("Recv", domain.KindInput)
	recv.SetTemplate(datamodel.NewDataModel("Challenge",
		datamodel.NewString("Token", "abc123"),
		datamodel.NewNumber("Flags", 8, 1),
	))

	send := domain.NewAction("Send", domain.KindOutput)
	send.SetTemplate(datamodel.NewDataModel("Answer",
		datamodel.NewBlock("Body", datamodel.NewString("Token", "")),
	))

	sm := domain.NewStateModel("Proto", "Login")
	require.NoError(t, sm.AddState(domain.NewState("Login", recv, send)))

	dom := domain.NewDom("pit")
	require.NoError(t, dom.AddStateModel(sm))
	return dom
}

func TestDom_Select(t *testing.T) {
	dom := selectorDom(t)

	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"by path", "//Login/Recv/Challenge/Token", []string{"Challenge.Token"}},
		{"descendant", "//Token", []string{"Challenge.Token", "Answer.Body.Token"}},
		{"action scope", "//Send//Token", []string{"Answer.Body.Token"}},
		{"attribute predicate", "//*[@type='action' and @kind='input']//*[@type='number']", []string{"Challenge.Flags"}},
		{"value predicate", "//Token[.='abc123']", []string{"Challenge.Token"}},
		{"no match", "//Nope", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dom.Select(tt.expr)
			require.NoError(t, err)

			var names []string
			for _, e := range got {
				names = append(names, e.FullName())
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestDom_SelectInvalid(t *testing.T) {
	dom := selectorDom(t)
	_, err := dom.Select("//[")
	assert.Error(t, err)
	assert.Error(t, domain.CompileSelector("//["))
	assert.NoError(t, domain.CompileSelector("//Token"))
}

func TestDom_SelectFollowsWorkingCopy(t *testing.T) {
	dom := selectorDom(t)
	recv := dom.StateModel("Proto").State("Login").Action("Recv")
	require.NoError(t, recv.Reset())

	got, err := dom.Select("//Recv//Token")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Same(t, recv.Model().Find("Token"), got[0])
}
