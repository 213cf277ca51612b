package registry

import "github.com/roach88/taxflow/internal/engine"

// newConstantStep builds params [key, value].
func newConstantStep(values []any) (engine.Step, error) {
	p := newParams("ConstantCommand", values)
	if err := p.count(2, 2); err != nil {
		return nil, err
	}
	key, err := p.string(0)
	if err != nil {
		return nil, err
	}
	return engine.NewConstantStep("", map[string]any{key: values[1]}), nil
}

// newConstantsStep builds params [object].
func newConstantsStep(values []any) (engine.Step, error) {
	p := newParams("ConstantsCommand", values)
	if err := p.count(1, 1); err != nil {
		return nil, err
	}
	obj, err := p.object(0)
	if err != nil {
		return nil, err
	}
	return engine.NewConstantStep("", obj), nil
}

// newLoadConstantsStep builds params [path, key?, query?].
func newLoadConstantsStep(values []any) (engine.Step, error) {
	p := newParams("LoadConstantsCommand", values)
	if err := p.count(1, 3); err != nil {
		return nil, err
	}
	path, err := p.string(0)
	if err != nil {
		return nil, err
	}
	key, err := p.optString(1)
	if err != nil {
		return nil, err
	}
	query, err := p.optString(2)
	if err != nil {
		return nil, err
	}
	return engine.NewResourceConstantStep("", path, key, query)
}

// newCompositeStep builds params [name?].
func newCompositeStep(values []any) (engine.Step, error) {
	p := newParams("CompositeCommand", values)
	if err := p.count(0, 1); err != nil {
		return nil, err
	}
	name, err := p.optString(0)
	if err != nil {
		return nil, err
	}
	return engine.NewCompositeStep(name), nil
}
