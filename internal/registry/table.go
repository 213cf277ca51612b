package registry

import "github.com/roach88/taxflow/internal/engine"

// tableConstructor builds params [resultKey, tableKey, inputKey].
func tableConstructor(tag string, fold func(table any, input float64) (float64, error)) Constructor {
	return func(values []any) (engine.Step, error) {
		p := newParams(tag, values)
		if err := p.count(3, 3); err != nil {
			return nil, err
		}
		result, err := p.string(0)
		if err != nil {
			return nil, err
		}
		table, err := p.string(1)
		if err != nil {
			return nil, err
		}
		input, err := p.string(2)
		if err != nil {
			return nil, err
		}
		fn := func(t any, args ...float64) (float64, error) {
			return fold(t, args[0])
		}
		return engine.NewTableStep("", result, fn, table, input), nil
	}
}
