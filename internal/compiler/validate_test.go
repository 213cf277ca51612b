package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taxflow/internal/engine"
	"github.com/roach88/taxflow/internal/registry"
)

func build(t *testing.T, doc string) engine.Step {
	t.Helper()
	step, err := registry.NewDefault().BuildJSON([]byte(doc))
	require.NoError(t, err)
	return step
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateCleanGraph(t *testing.T) {
	root := build(t, `{"type":"CompositeCommand","params":["box"],"children":[
		{"type":"DefineInput","params":["width","Width","number"]},
		{"type":"DefineInput","params":["length","Length","number"]},
		{"type":"MultiplyCommand","params":["area","width","length"]},
		{"type":"DefineOutput","params":["area","Area","number"]}
	]}`)

	assert.Empty(t, Validate(root))
}

func TestValidateReadBeforeWrite(t *testing.T) {
	root := build(t, `{"type":"CompositeCommand","params":["box"],"children":[
		{"type":"MultiplyCommand","params":["volume","height","area"]},
		{"type":"MultiplyCommand","params":["area","width","length"]}
	]}`)

	errs := Validate(root)
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrReadBeforeWrite, errs[0].Code)
	assert.Equal(t, "box/arithmetic#0", errs[0].Field)
}

func TestValidateDuplicates(t *testing.T) {
	root := build(t, `{"type":"CompositeCommand","params":[],"children":[
		{"type":"DefineInput","params":["a","A","number"]},
		{"type":"DefineInput","params":["a","A","number"]},
		{"type":"ConstantCommand","params":["k",1]},
		{"type":"AddCommand","params":["k","a"]},
		{"type":"DefineOutput","params":["missing","M","number"]},
		{"type":"CompositeCommand","params":["empty"]}
	]}`)

	assert.ElementsMatch(t,
		[]string{ErrDuplicateReference, ErrDuplicateWrite, ErrOutputUndefined, ErrEmptyComposite},
		codes(Validate(root)))
}

func TestValidateOpaqueResource(t *testing.T) {
	root := build(t, `{"type":"CompositeCommand","params":[],"children":[
		{"type":"LoadConstantsCommand","params":["rates.json"]},
		{"type":"AddCommand","params":["r","unknownKey"]},
		{"type":"DefineOutput","params":["r","R","number"]}
	]}`)

	assert.Empty(t, Validate(root))
}

func TestValidateKeyedResource(t *testing.T) {
	root := build(t, `{"type":"CompositeCommand","params":[],"children":[
		{"type":"LoadConstantsCommand","params":["rates.json","brackets"]},
		{"type":"DefineInput","params":["income","Income","number"]},
		{"type":"TaxBracketCommand","params":["tax","brackets","income"]}
	]}`)

	assert.Empty(t, Validate(root))
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Field: "root/x", Message: "bad", Code: ErrDuplicateWrite}
	assert.Equal(t, "[E102] root/x: bad", e.Error())
}
