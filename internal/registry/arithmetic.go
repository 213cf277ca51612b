package registry

import (
	"math"

	"github.com/roach88/taxflow/internal/engine"
)

// arithmeticOp describes one arithmetic type tag: its function and the
// number of input keys it accepts (maxInputs < 0 means unbounded).
type arithmeticOp struct {
	fn        engine.ArithmeticFunc
	minInputs int
	maxInputs int
}

var arithmeticOps = map[string]arithmeticOp{
	"AddCommand":               {fn: add, minInputs: 1, maxInputs: -1},
	"SubtractCommand":          {fn: subtract, minInputs: 1, maxInputs: -1},
	"MultiplyCommand":          {fn: multiply, minInputs: 1, maxInputs: -1},
	"DivideCommand":            {fn: divide, minInputs: 2, maxInputs: -1},
	"MinCommand":               {fn: minimum, minInputs: 1, maxInputs: -1},
	"MaxCommand":               {fn: maximum, minInputs: 1, maxInputs: -1},
	"PercentageCommand":        {fn: percentage, minInputs: 2, maxInputs: 2},
	"LimitedPercentageCommand": {fn: limitedPercentage, minInputs: 3, maxInputs: 3},
	"RoundCommand":             {fn: round2, minInputs: 1, maxInputs: 1},
	"FloorZeroCommand":         {fn: floorZero, minInputs: 1, maxInputs: 1},
}

// arithmeticConstructor builds params [resultKey, inputKeys...].
func arithmeticConstructor(tag string, op arithmeticOp) Constructor {
	return func(values []any) (engine.Step, error) {
		p := newParams(tag, values)
		maxParams := -1
		if op.maxInputs >= 0 {
			maxParams = op.maxInputs + 1
		}
		if err := p.count(op.minInputs+1, maxParams); err != nil {
			return nil, err
		}
		result, err := p.string(0)
		if err != nil {
			return nil, err
		}
		inputs, err := p.strings(1)
		if err != nil {
			return nil, err
		}
		return engine.NewArithmeticStep("", result, op.fn, inputs...), nil
	}
}

func add(args ...float64) (float64, error) {
	sum := 0.0
	for _, a := range args {
		sum += a
	}
	return sum, nil
}

func subtract(args ...float64) (float64, error) {
	out := args[0]
	for _, a := range args[1:] {
		out -= a
	}
	return out, nil
}

func multiply(args ...float64) (float64, error) {
	out := 1.0
	for _, a := range args {
		out *= a
	}
	return out, nil
}

func divide(args ...float64) (float64, error) {
	out := args[0]
	for _, a := range args[1:] {
		d, err := engine.ValidNumberNonZero(a)
		if err != nil {
			return 0, err
		}
		out /= d
	}
	return out, nil
}

func minimum(args ...float64) (float64, error) {
	out := args[0]
	for _, a := range args[1:] {
		out = math.Min(out, a)
	}
	return out, nil
}

func maximum(args ...float64) (float64, error) {
	out := args[0]
	for _, a := range args[1:] {
		out = math.Max(out, a)
	}
	return out, nil
}

func percentage(args ...float64) (float64, error) {
	return args[0] * args[1] / 100, nil
}

func limitedPercentage(args ...float64) (float64, error) {
	return engine.LimitedPercentage(args[0], args[1], args[2]), nil
}

// round2 rounds half away from zero to two decimal places.
func round2(args ...float64) (float64, error) {
	return math.Round(args[0]*100) / 100, nil
}

func floorZero(args ...float64) (float64, error) {
	return math.Max(args[0], 0), nil
}
