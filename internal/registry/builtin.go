package registry

import (
	"maps"
	"slices"

	"github.com/roach88/taxflow/internal/engine"
)

// RegisterBuiltins binds the built-in step catalogue into r.
func RegisterBuiltins(r *Registry) error {
	for _, tag := range slices.Sorted(maps.Keys(arithmeticOps)) {
		if err := r.Register(tag, arithmeticConstructor(tag, arithmeticOps[tag])); err != nil {
			return err
		}
	}

	others := []struct {
		tag string
		c   Constructor
	}{
		{"FormulaCommand", newFormulaStep},
		{"TaxBracketCommand", tableConstructor("TaxBracketCommand", engine.TaxForTiers)},
		{"TierLookupCommand", tableConstructor("TierLookupCommand", engine.LookupTiers)},
		{"RebateCommand", tableConstructor("RebateCommand", engine.LookupTiers)},
		{"DefineInput", newInputDefinition},
		{"DefineOutput", newOutputDefinition},
		{"ConstantCommand", newConstantStep},
		{"ConstantsCommand", newConstantsStep},
		{"LoadConstantsCommand", newLoadConstantsStep},
		{"CompositeCommand", newCompositeStep},
	}
	for _, o := range others {
		if err := r.Register(o.tag, o.c); err != nil {
			return err
		}
	}
	return nil
}

// NewDefault returns a registry holding the built-in catalogue.
func NewDefault(opts ...Option) *Registry {
	r := New(opts...)
	if err := RegisterBuiltins(r); err != nil {
		panic(err)
	}
	return r
}
