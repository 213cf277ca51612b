package engine

// Kind names a concrete step variant.
type Kind string

const (
	KindArithmetic Kind = "arithmetic"
	KindTable      Kind = "table"
	KindInput      Kind = "input"
	KindOutput     Kind = "output"
	KindConstant   Kind = "constant"
	KindComposite  Kind = "composite"
)

// Step is a node in the computation graph.
//
// The set of implementations is closed: ArithmeticStep, TableStep,
// InputDefinition, OutputDefinition, ConstantStep and CompositeStep. Each
// dispatches to exactly one Visitor method in Accept.
type Step interface {
	// Name returns the optional human-readable label.
	Name() string

	// Kind returns the concrete variant.
	Kind() Kind

	// Execute applies the step to rec and returns it. On failure the record
	// keeps every key written before the failure.
	Execute(rec *Record) (*Record, error)

	// Accept dispatches to the visitor method for this variant and returns v.
	Accept(v Visitor) Visitor

	core() *StepCore
}

// StepCore is embedded by every step variant. It carries the step label,
// the attachment state used to keep the graph a tree, and the key
// resolution helpers shared by computing steps.
type StepCore struct {
	name     string
	attached bool
}

// Name returns the step label.
func (c *StepCore) Name() string {
	return c.name
}

// SetName replaces the step label.
func (c *StepCore) SetName(name string) {
	c.name = name
}

// Attached reports whether the step has been added to a composite.
func (c *StepCore) Attached() bool {
	return c.attached
}

func (c *StepCore) core() *StepCore {
	return c
}

// numbers resolves each key to a finite number.
func (c *StepCore) numbers(rec *Record, keys []string) ([]float64, error) {
	vals := make([]float64, len(keys))
	for i, key := range keys {
		f, err := rec.Number(key)
		if err != nil {
			return nil, err
		}
		vals[i] = f
	}
	return vals, nil
}

// writeNumber validates a computed result and writes it once.
func (c *StepCore) writeNumber(rec *Record, key string, value float64) error {
	if _, err := ValidNumber(value); err != nil {
		return NewNonNumericValueError(key, value)
	}
	return rec.Set(key, value)
}
