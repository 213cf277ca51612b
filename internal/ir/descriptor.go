package ir

// Value kinds accepted by input and output definitions.
const (
	ValueKindNumber = "number"
	ValueKindString = "string"
)

// Validation modes accepted by input and output definitions.
const (
	ValidationModeValue = "value"
	ValidationModeList  = "list"
)

// IODescriptor is the presentation shape of one input or output definition.
// Form renderers and console prompts consume it; the engine guarantees it is
// available after a single traversal of the step graph.
type IODescriptor struct {
	Reference      string     `json:"reference"`
	DisplayText    string     `json:"displayText"`
	ValueKind      string     `json:"valueKind"`
	ValidationMode string     `json:"validationMode"`
	Properties     Properties `json:"properties"`
}

// Properties bounds the value of an input or output definition.
// Min and Max are inclusive; for strings they bound the length.
type Properties struct {
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// Option is one permitted value under the list validation mode.
type Option struct {
	Text  string `json:"text"`
	Value any    `json:"value"`
}
