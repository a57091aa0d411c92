package datamodel_test

import (
	"context"
	"testing"

	"github.com/aretw0/orchard/pkg/datamodel"
	"github.com/aretw0/orchard/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadding_AlignsParent(t *testing.T) {
	tests := []struct {
		name string
		bits int
		want int64
	}{
		{"20 bits needs 4", 20, 4},
		{"24 bits needs none", 24, 0},
		{"1 bit needs 7", 1, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pad := datamodel.NewPadding("Pad", 8)
			model := datamodel.NewDataModel("M", datamodel.NewNumber("Field", tt.bits, 1), pad)

			v := pad.Value()
			assert.Equal(t, tt.want, v.LengthBits())
			assert.Equal(t, int64(0), v.PositionBits())
			assert.Equal(t, int64(tt.bits)+tt.want, model.Value().LengthBits())
		})
	}
}

func TestPadding_EmptyTargetPadsToBoundary(t *testing.T) {
	pad := datamodel.NewPadding("Pad", 16)
	datamodel.NewDataModel("M", pad)

	assert.Equal(t, int64(16), pad.Value().LengthBits())
}

func TestPadding_FollowsParentChanges(t *testing.T) {
	field := datamodel.NewString("Field", "abc")
	pad := datamodel.NewPadding("Pad", 32)
	model := datamodel.NewDataModel("M", field, pad)
	assert.Equal(t, int64(32), model.Value().LengthBits())

	require.NoError(t, field.SetDefaultValue("abcde"))
	assert.Equal(t, int64(24), pad.Value().LengthBits())
	assert.Equal(t, int64(64), model.Value().LengthBits())
}

func TestPadding_RebindAlignedTo(t *testing.T) {
	group := datamodel.NewBlock("Group", datamodel.NewNumber("Nibble", 4, 0))
	other := datamodel.NewNumber("Other", 4, 0)
	pad := datamodel.NewPadding("Pad", 8)
	model := datamodel.NewDataModel("M", group, other, pad)

	pad.SetAlignedTo(group)
	assert.Equal(t, int64(4), pad.Value().LengthBits())

	require.NoError(t, group.Append(datamodel.NewNumber("Pair", 2, 0)))
	assert.Equal(t, int64(2), pad.Value().LengthBits())

	pad.SetAlignedTo(other)
	assert.Equal(t, int64(4), pad.Value().LengthBits())
	assert.NotContains(t, model.Dependencies().Dependents(group), datamodel.Element(pad))
	assert.Contains(t, model.Dependencies().Dependents(other), datamodel.Element(pad))
}

func TestPadding_ReentryReturnsEmpty(t *testing.T) {
	var inner int64 = -1
	pad := datamodel.NewScriptedPadding("Pad", "len")

	eval := script.EvaluatorFunc(func(ctx context.Context, expression string, vars map[string]any) (any, error) {
		inner = pad.Value().LengthBits()
		return 3, nil
	})

	model := datamodel.NewDataModel("M", datamodel.NewNumber("N", 8, 0), pad)
	model.SetEvaluator(eval)

	assert.Equal(t, int64(3), pad.Value().LengthBits())
	assert.Equal(t, int64(0), inner)
	assert.Equal(t, int64(11), model.Value().LengthBits())
}

func TestPadding_AlignedToCycleTerminates(t *testing.T) {
	first := datamodel.NewPadding("First", 8)
	second := datamodel.NewPadding("Second", 8)
	model := datamodel.NewDataModel("M", first, second)

	first.SetAlignedTo(second)
	second.SetAlignedTo(first)

	assert.Equal(t, int64(0), first.Value().LengthBits())
	assert.Equal(t, int64(8), second.Value().LengthBits())
	assert.Equal(t, int64(8), model.Value().LengthBits())
}

func TestPadding_Scripted(t *testing.T) {
	pad := datamodel.NewScriptedPadding("Pad", "4 * 3")
	model := datamodel.NewDataModel("M", datamodel.NewNumber("N", 8, 0), pad)
	model.SetEvaluator(script.NewExprEvaluator())

	out, err := model.Render()
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.Equal(t, int64(12), pad.Value().LengthBits())
}

func TestPadding_ScriptedErrorsAreReported(t *testing.T) {
	pad := datamodel.NewScriptedPadding("Pad", "1 +")
	model := datamodel.NewDataModel("M", datamodel.NewNumber("N", 8, 7), pad)

	out, err := model.Render()
	assert.ErrorIs(t, err, datamodel.ErrNoEvaluator)
	assert.Equal(t, []byte{7}, out)

	model.SetEvaluator(script.NewExprEvaluator())
	_, err = model.Render()
	assert.ErrorContains(t, err, "M.Pad")
}

func TestPadding_IsReadOnly(t *testing.T) {
	pad := datamodel.NewPadding("Pad", 8)
	assert.ErrorIs(t, pad.SetDefaultValue([]byte{0}), datamodel.ErrReadOnlyValue)
}
