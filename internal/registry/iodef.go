package registry

import (
	"github.com/roach88/taxflow/internal/engine"
	"github.com/roach88/taxflow/internal/ir"
)

// descriptorFromParams reads [reference, displayText, valueKind,
// validationMode?, properties?].
func descriptorFromParams(tag string, values []any) (ir.IODescriptor, error) {
	p := newParams(tag, values)
	if err := p.count(3, 5); err != nil {
		return ir.IODescriptor{}, err
	}
	ref, err := p.string(0)
	if err != nil {
		return ir.IODescriptor{}, err
	}
	text, err := p.optString(1)
	if err != nil {
		return ir.IODescriptor{}, err
	}
	kind, err := p.string(2)
	if err != nil {
		return ir.IODescriptor{}, err
	}
	mode, err := p.optString(3)
	if err != nil {
		return ir.IODescriptor{}, err
	}
	props, err := decode[ir.Properties](p, 4)
	if err != nil {
		return ir.IODescriptor{}, err
	}
	return ir.IODescriptor{
		Reference:      ref,
		DisplayText:    text,
		ValueKind:      kind,
		ValidationMode: mode,
		Properties:     props,
	}, nil
}

func newInputDefinition(values []any) (engine.Step, error) {
	d, err := descriptorFromParams("DefineInput", values)
	if err != nil {
		return nil, err
	}
	return engine.NewInputDefinition(d)
}

func newOutputDefinition(values []any) (engine.Step, error) {
	d, err := descriptorFromParams("DefineOutput", values)
	if err != nil {
		return nil, err
	}
	return engine.NewOutputDefinition(d)
}
