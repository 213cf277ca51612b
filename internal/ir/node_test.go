package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNodeNested(t *testing.T) {
	doc := `{
		"type": "CompositeCommand",
		"name": "volume",
		"params": [],
		"children": [
			{"type": "MultiplyCommand", "params": ["area", "width", "length"]},
			{"type": "MultiplyCommand", "params": ["volume", "height", "area"]}
		]
	}`

	n, err := ParseNode([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "CompositeCommand", n.Type)
	assert.Equal(t, "volume", n.Name)
	require.Len(t, n.Children, 2)
	assert.Equal(t, []any{"area", "width", "length"}, n.Children[0].Params)
	assert.Equal(t, 3, n.Count())
}

func TestParseNodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"missing type", `{"params":[]}`, "$: type is required"},
		{"nested missing type", `{"type":"C","params":[],"children":[{"params":[]}]}`, "$.children[0]: type is required"},
		{"unknown field", `{"type":"C","params":[],"kids":[]}`, "unknown field"},
		{"malformed", `{"type":`, "parse pipeline document"},
		{"trailing", `{"type":"C","params":[]} {}`, "trailing data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNode([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseNodeNumbersAreFloat64(t *testing.T) {
	n, err := ParseNode([]byte(`{"type":"ConstantCommand","params":["rate",15]}`))
	require.NoError(t, err)
	assert.Equal(t, 15.0, n.Params[1])
}
