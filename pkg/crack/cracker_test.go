package crack_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/orchard/pkg/crack"
	"github.com/aretw0/orchard/pkg/datamodel"
	"github.com/aretw0/orchard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrack_SizeRelation(t *testing.T) {
	length := datamodel.NewNumber("Length", 8, 0)
	user := datamodel.NewString("User", "")
	flags := datamodel.NewNumber("Flags", 16, 0)
	model := datamodel.NewDataModel("Login", length, user, flags)
	_, err := datamodel.Relate(datamodel.SizeOf, length, user)
	require.NoError(t, err)

	input := []byte{4, 'r', 'o', 'o', 't', 0x01, 0x02}
	require.NoError(t, crack.New().Crack(context.Background(), model, bytes.NewReader(input)))

	assert.Equal(t, "root", user.DefaultValue())
	assert.Equal(t, int64(0x0102), flags.DefaultValue())
	assert.Equal(t, input, model.Value().Bytes())
}

func TestCrack_NumberEncodings(t *testing.T) {
	le := datamodel.NewNumber("LE", 16, 0)
	le.LittleEndian = true
	signed := datamodel.NewNumber("Signed", 8, 0)
	signed.Signed = true
	nibble := datamodel.NewNumber("Nibble", 4, 0)
	rest := datamodel.NewNumber("Rest", 4, 0)
	model := datamodel.NewDataModel("M", le, signed, nibble, rest)

	require.NoError(t, crack.New().Crack(context.Background(), model, bytes.NewReader([]byte{0x34, 0x12, 0xFF, 0xA5})))

	assert.Equal(t, int64(0x1234), le.DefaultValue())
	assert.Equal(t, int64(-1), signed.DefaultValue())
	assert.Equal(t, int64(0xA), nibble.DefaultValue())
	assert.Equal(t, int64(0x5), rest.DefaultValue())
}

func TestCrack_FixedLengthAndRest(t *testing.T) {
	magic := datamodel.NewBlob("Magic", nil)
	magic.Length = 2
	body := datamodel.NewBlob("Body", nil)
	model := datamodel.NewDataModel("M", datamodel.NewBlock("Header", magic), body)

	require.NoError(t, crack.New().Crack(context.Background(), model, bytes.NewReader([]byte("PKdata"))))
	assert.Equal(t, []byte("PK"), magic.DefaultValue())
	assert.Equal(t, []byte("data"), body.DefaultValue())
}

func TestCrack_PaddingRealigns(t *testing.T) {
	flag := datamodel.NewNumber("Flag", 4, 0)
	pad := datamodel.NewPadding("Pad", 8)
	tail := datamodel.NewNumber("Tail", 8, 0)
	model := datamodel.NewDataModel("M", datamodel.NewBlock("Head", flag, pad), tail)

	require.NoError(t, crack.New().Crack(context.Background(), model, bytes.NewReader([]byte{0x90, 0x7F})))
	assert.Equal(t, int64(9), flag.DefaultValue())
	assert.Equal(t, int64(0x7F), tail.DefaultValue())
}

func TestCrack_ShortInputIsCrackingFailure(t *testing.T) {
	model := datamodel.NewDataModel("M", datamodel.NewNumber("Code", 32, 0))

	err := crack.New().Crack(context.Background(), model, bytes.NewReader([]byte{1}))

	var failure *ports.CrackingFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "M.Code", failure.Element)
	assert.ErrorIs(t, err, ports.ErrCrackingFailure)
	assert.ErrorIs(t, err, datamodel.ErrShortStream)
}

func TestCrack_StrictRejectsTrailingInput(t *testing.T) {
	newModel := func() *datamodel.DataModel {
		return datamodel.NewDataModel("M", datamodel.NewNumber("Code", 8, 0))
	}
	input := []byte{1, 2}

	assert.NoError(t, crack.New().Crack(context.Background(), newModel(), bytes.NewReader(input)))

	err := crack.New(crack.WithStrict()).Crack(context.Background(), newModel(), bytes.NewReader(input))
	assert.ErrorIs(t, err, ports.ErrCrackingFailure)
}

func TestCrack_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	model := datamodel.NewDataModel("M", datamodel.NewNumber("Code", 8, 0))

	err := crack.New().Crack(ctx, model, bytes.NewReader([]byte{1}))
	assert.ErrorIs(t, err, context.Canceled)
}
