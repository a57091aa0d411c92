package datamodel_test

import (
	"testing"

	"github.com/aretw0/orchard/pkg/datamodel"
	"github.com/aretw0/orchard/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTemplate(t *testing.T) *datamodel.DataModel {
	t.Helper()

	length := datamodel.NewNumber("Len", 8, 0)
	body := datamodel.NewString("Body", "abc")
	model := datamodel.NewDataModel("Template", length, body, datamodel.NewPadding("Pad", 32))
	model.Ref = "Template"

	_, err := datamodel.Relate(datamodel.SizeOf, length, body)
	require.NoError(t, err)
	return model
}

func TestClone_DoesNotLeakMutations(t *testing.T) {
	template := newTemplate(t)
	want := template.Value()

	first := template.Clone()
	require.NoError(t, first.Find("Body").SetDefaultValue("mutated!"))
	assert.False(t, want.Equal(first.Value()))

	second := template.Clone()
	assert.True(t, want.Equal(second.Value()))
	assert.True(t, want.Equal(template.Value()))
	assert.Equal(t, "abc", template.Find("Body").DefaultValue())
}

func TestClone_RemapsRelations(t *testing.T) {
	template := newTemplate(t)
	clone := template.Clone()

	body := clone.Find("Body")
	rel := body.Relations().Get(datamodel.SizeOf)
	require.NotNil(t, rel)
	assert.Same(t, clone.Find("Len"), rel.From)
	assert.Same(t, body, rel.Of)
	assert.NotSame(t, template.Find("Body").Relations().Get(datamodel.SizeOf), rel)

	require.NoError(t, body.SetDefaultValue("abcdefg"))
	out, err := clone.Render()
	require.NoError(t, err)
	// Len(8) + Body(56) = 64 bits, already aligned to 32.
	assert.Equal(t, append([]byte{7}, "abcdefg"...), out)
}

func TestClone_KeepsEvaluatorAndRef(t *testing.T) {
	template := newTemplate(t)
	eval := script.NewExprEvaluator()
	template.SetEvaluator(eval)
	template.SetOwner("action")
	template.AttachDocument("dom")

	clone := template.Clone()
	assert.Same(t, eval, clone.Evaluator())
	assert.Equal(t, "Template", clone.Ref)
	assert.Nil(t, clone.Owner())
	assert.Nil(t, clone.Document())
}
