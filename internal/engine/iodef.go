package engine

import (
	"fmt"
	"unicode/utf8"

	"github.com/roach88/taxflow/internal/ir"
)

// IODefinition declares a named value the pipeline consumes or produces and
// validates it against its declared kind, options and bounds. It never
// mutates the record.
type IODefinition struct {
	StepCore
	Descriptor ir.IODescriptor
}

func newIODefinition(d ir.IODescriptor) (IODefinition, error) {
	if d.Reference == "" {
		return IODefinition{}, NewInvalidParamsError("", "reference is required")
	}
	switch d.ValueKind {
	case ir.ValueKindNumber, ir.ValueKindString:
	default:
		return IODefinition{}, NewInvalidParamsError(d.Reference, fmt.Sprintf("unknown value kind %q", d.ValueKind))
	}
	switch d.ValidationMode {
	case "":
		d.ValidationMode = ir.ValidationModeValue
	case ir.ValidationModeValue:
	case ir.ValidationModeList:
		if len(d.Properties.Options) == 0 {
			return IODefinition{}, NewInvalidParamsError(d.Reference, "list validation requires options")
		}
	default:
		return IODefinition{}, NewInvalidParamsError(d.Reference, fmt.Sprintf("unknown validation mode %q", d.ValidationMode))
	}
	return IODefinition{StepCore: StepCore{name: d.Reference}, Descriptor: d}, nil
}

// Reference returns the record key this definition validates.
func (d *IODefinition) Reference() string {
	return d.Descriptor.Reference
}

// Validate checks the referenced value in rec.
func (d *IODefinition) Validate(rec *Record) error {
	key := d.Descriptor.Reference
	value, err := rec.Get(key)
	if err != nil {
		return err
	}

	var measured float64
	switch d.Descriptor.ValueKind {
	case ir.ValueKindNumber:
		f, err := ValidNumber(value)
		if err != nil {
			return NewTypeMismatchError(key, ir.ValueKindNumber, value)
		}
		measured = f
	case ir.ValueKindString:
		s, err := ValidString(value)
		if err != nil {
			return NewTypeMismatchError(key, ir.ValueKindString, value)
		}
		measured = float64(utf8.RuneCountInString(s))
	}

	if d.Descriptor.ValidationMode == ir.ValidationModeList && !d.inOptions(value) {
		return NewNotInOptionListError(key, value)
	}

	props := d.Descriptor.Properties
	if props.Min != nil && measured < *props.Min {
		return NewOutOfRangeError(key, measured, "min", *props.Min)
	}
	if props.Max != nil && measured > *props.Max {
		return NewOutOfRangeError(key, measured, "max", *props.Max)
	}
	return nil
}

func (d *IODefinition) inOptions(value any) bool {
	for _, opt := range d.Descriptor.Properties.Options {
		if sameValue(opt.Value, value) {
			return true
		}
	}
	return false
}

// sameValue compares option values; numbers compare numerically so 1 and
// 1.0 match.
func sameValue(a, b any) bool {
	fa, aNum := asFloat(a)
	fb, bNum := asFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	if aNum || bNum {
		return false
	}
	sa, aStr := a.(string)
	sb, bStr := b.(string)
	return aStr && bStr && sa == sb
}

// InputDefinition declares a value the caller must supply.
type InputDefinition struct {
	IODefinition
}

// NewInputDefinition creates an input definition.
func NewInputDefinition(d ir.IODescriptor) (*InputDefinition, error) {
	def, err := newIODefinition(d)
	if err != nil {
		return nil, err
	}
	return &InputDefinition{IODefinition: def}, nil
}

func (s *InputDefinition) Kind() Kind { return KindInput }

// Execute implements Step.
func (s *InputDefinition) Execute(rec *Record) (*Record, error) {
	return rec, s.Validate(rec)
}

// Accept implements Step.
func (s *InputDefinition) Accept(v Visitor) Visitor {
	v.VisitInput(s)
	return v
}

// OutputDefinition declares a value the pipeline produces for the caller.
type OutputDefinition struct {
	IODefinition
}

// NewOutputDefinition creates an output definition.
func NewOutputDefinition(d ir.IODescriptor) (*OutputDefinition, error) {
	def, err := newIODefinition(d)
	if err != nil {
		return nil, err
	}
	return &OutputDefinition{IODefinition: def}, nil
}

func (s *OutputDefinition) Kind() Kind { return KindOutput }

// Execute implements Step.
func (s *OutputDefinition) Execute(rec *Record) (*Record, error) {
	return rec, s.Validate(rec)
}

// Accept implements Step.
func (s *OutputDefinition) Accept(v Visitor) Visitor {
	v.VisitOutput(s)
	return v
}
