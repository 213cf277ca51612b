package registry

import (
	"fmt"
	"time"
	"unicode"

	"github.com/dop251/goja"

	"github.com/roach88/taxflow/internal/engine"
)

// formulaTimeout bounds a single formula evaluation. The runtime is
// interrupted when it expires.
var formulaTimeout = 250 * time.Millisecond

// newFormulaStep builds params [resultKey, expression, inputKeys...].
// The expression is JavaScript evaluated with every input key bound as a
// variable; it must produce a finite number.
func newFormulaStep(values []any) (engine.Step, error) {
	p := newParams("FormulaCommand", values)
	if err := p.count(2, -1); err != nil {
		return nil, err
	}
	result, err := p.string(0)
	if err != nil {
		return nil, err
	}
	expr, err := p.string(1)
	if err != nil {
		return nil, err
	}
	inputs, err := p.strings(2)
	if err != nil {
		return nil, err
	}
	for _, key := range inputs {
		if !isIdentifier(key) {
			return nil, p.errorf("input key %q is not a valid expression identifier", key)
		}
	}

	program, err := goja.Compile(result, expr, true)
	if err != nil {
		return nil, p.errorf("invalid expression %q: %v", expr, err)
	}

	fn := func(args ...float64) (float64, error) {
		vm := goja.New()
		for i, key := range inputs {
			if err := vm.Set(key, args[i]); err != nil {
				return 0, fmt.Errorf("bind %s: %w", key, err)
			}
		}
		out, err := evaluate(vm, program)
		if err != nil {
			return 0, engine.NewFormulaError(result, err)
		}
		f, err := engine.ValidNumber(out.Export())
		if err != nil {
			return 0, engine.NewNonNumericValueError(result, out.Export())
		}
		return f, nil
	}
	return engine.NewArithmeticStep("", result, fn, inputs...), nil
}

// evaluate runs program on vm, interrupting it after formulaTimeout.
func evaluate(vm *goja.Runtime, program *goja.Program) (goja.Value, error) {
	limit := formulaTimeout
	timer := time.AfterFunc(limit, func() {
		vm.Interrupt(fmt.Sprintf("exceeded %s", limit))
	})
	defer timer.Stop()
	return vm.RunProgram(program)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
