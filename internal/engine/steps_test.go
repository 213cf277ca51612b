package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taxflow/internal/ir"
)

func multiply(args ...float64) (float64, error) {
	out := 1.0
	for _, a := range args {
		out *= a
	}
	return out, nil
}

func ptr(f float64) *float64 { return &f }

func TestArithmeticStepExecute(t *testing.T) {
	step := NewArithmeticStep("area", "area", multiply, "width", "length")
	rec := NewRecordFrom(map[string]any{"width": 5.0, "length": 4.0})

	rec, err := step.Execute(rec)
	require.NoError(t, err)

	got, err := rec.Number("area")
	require.NoError(t, err)
	assert.Equal(t, 20.0, got)
	assert.Equal(t, KindArithmetic, step.Kind())
	assert.Equal(t, "area", step.Name())
}

func TestArithmeticStepErrors(t *testing.T) {
	step := NewArithmeticStep("", "area", multiply, "width", "length")

	_, err := step.Execute(NewRecordFrom(map[string]any{"width": 5.0}))
	assert.True(t, IsCode(err, ErrCodeKeyNotFound))
	assert.Equal(t, "length", KeyOf(err))

	_, err = step.Execute(NewRecordFrom(map[string]any{"width": 5.0, "length": "four"}))
	assert.True(t, IsCode(err, ErrCodeNonNumericValue))
	assert.Equal(t, "length", KeyOf(err))

	_, err = step.Execute(NewRecordFrom(map[string]any{"width": 5.0, "length": 4.0, "area": 1.0}))
	assert.True(t, IsCode(err, ErrCodeKeyAlreadyDefined))
	assert.Equal(t, "area", KeyOf(err))
}

func TestArithmeticStepRejectsNonFiniteResult(t *testing.T) {
	inf := func(...float64) (float64, error) { return math.Inf(1), nil }
	step := NewArithmeticStep("", "r", inf)

	rec, err := step.Execute(NewRecord())
	assert.True(t, IsCode(err, ErrCodeNonNumericValue))
	assert.False(t, rec.Has("r"))
}

func TestArithmeticStepFuncError(t *testing.T) {
	boom := errors.New("boom")
	step := NewArithmeticStep("", "r", func(...float64) (float64, error) { return 0, boom }, "a")

	_, err := step.Execute(NewRecordFrom(map[string]any{"a": 1.0}))
	assert.ErrorIs(t, err, boom)
}

func TestTableStepExecute(t *testing.T) {
	fn := func(table any, args ...float64) (float64, error) {
		return TaxForTiers(table, args[0])
	}
	step := NewTableStep("paye", "tax", fn, "brackets", "income")

	rec := NewRecordFrom(map[string]any{
		"brackets": progressiveTable(),
		"income":   120000.0,
	})
	rec, err := step.Execute(rec)
	require.NoError(t, err)

	tax, err := rec.Number("tax")
	require.NoError(t, err)
	assert.InDelta(t, 16500, tax, 1e-9)
	assert.Equal(t, KindTable, step.Kind())
}

func TestTableStepMissingTable(t *testing.T) {
	step := NewTableStep("", "tax", func(any, ...float64) (float64, error) { return 0, nil }, "brackets", "income")
	_, err := step.Execute(NewRecordFrom(map[string]any{"income": 1.0}))
	assert.True(t, IsCode(err, ErrCodeKeyNotFound))
	assert.Equal(t, "brackets", KeyOf(err))
}

func TestInputDefinitionValidation(t *testing.T) {
	tests := []struct {
		name  string
		desc  ir.IODescriptor
		value any
		code  ErrorCode
	}{
		{
			name:  "number ok",
			desc:  ir.IODescriptor{Reference: "x", ValueKind: "number", ValidationMode: "value"},
			value: 12.0,
		},
		{
			name:  "number given string",
			desc:  ir.IODescriptor{Reference: "x", ValueKind: "number", ValidationMode: "value"},
			value: "12",
			code:  ErrCodeTypeMismatch,
		},
		{
			name:  "string given number",
			desc:  ir.IODescriptor{Reference: "x", ValueKind: "string", ValidationMode: "value"},
			value: 12.0,
			code:  ErrCodeTypeMismatch,
		},
		{
			name:  "string given bool",
			desc:  ir.IODescriptor{Reference: "x", ValueKind: "string", ValidationMode: "value"},
			value: true,
			code:  ErrCodeTypeMismatch,
		},
		{
			name:  "min inclusive",
			desc:  ir.IODescriptor{Reference: "x", ValueKind: "number", ValidationMode: "value", Properties: ir.Properties{Min: ptr(0)}},
			value: 0.0,
		},
		{
			name:  "below min",
			desc:  ir.IODescriptor{Reference: "x", ValueKind: "number", ValidationMode: "value", Properties: ir.Properties{Min: ptr(0)}},
			value: -1.0,
			code:  ErrCodeOutOfRange,
		},
		{
			name:  "above max",
			desc:  ir.IODescriptor{Reference: "x", ValueKind: "number", ValidationMode: "value", Properties: ir.Properties{Max: ptr(120)}},
			value: 121.0,
			code:  ErrCodeOutOfRange,
		},
		{
			name:  "string length bound",
			desc:  ir.IODescriptor{Reference: "x", ValueKind: "string", ValidationMode: "value", Properties: ir.Properties{Max: ptr(3)}},
			value: "abcd",
			code:  ErrCodeOutOfRange,
		},
		{
			name: "list member",
			desc: ir.IODescriptor{Reference: "x", ValueKind: "string", ValidationMode: "list", Properties: ir.Properties{
				Options: []ir.Option{{Text: "Monthly", Value: "monthly"}, {Text: "Annual", Value: "annual"}},
			}},
			value: "annual",
		},
		{
			name: "list non-member",
			desc: ir.IODescriptor{Reference: "x", ValueKind: "string", ValidationMode: "list", Properties: ir.Properties{
				Options: []ir.Option{{Text: "Monthly", Value: "monthly"}},
			}},
			value: "weekly",
			code:  ErrCodeNotInOptionList,
		},
		{
			name: "numeric list compares numerically",
			desc: ir.IODescriptor{Reference: "x", ValueKind: "number", ValidationMode: "list", Properties: ir.Properties{
				Options: []ir.Option{{Text: "Twelve", Value: 12}},
			}},
			value: 12.0,
		},
		{
			name: "list with bounds",
			desc: ir.IODescriptor{Reference: "x", ValueKind: "number", ValidationMode: "list", Properties: ir.Properties{
				Options: []ir.Option{{Text: "Big", Value: 500.0}},
				Max:     ptr(100),
			}},
			value: 500.0,
			code:  ErrCodeOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step, err := NewInputDefinition(tt.desc)
			require.NoError(t, err)

			rec := NewRecordFrom(map[string]any{"x": tt.value})
			before := rec.Len()
			_, err = step.Execute(rec)
			if tt.code == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.code, CodeOf(err))
				assert.Equal(t, "x", KeyOf(err))
			}
			assert.Equal(t, before, rec.Len(), "validation never writes")
		})
	}
}

func TestIODefinitionMissingKey(t *testing.T) {
	step, err := NewOutputDefinition(ir.IODescriptor{Reference: "net", ValueKind: "number"})
	require.NoError(t, err)

	_, err = step.Execute(NewRecord())
	assert.True(t, IsCode(err, ErrCodeKeyNotFound))
	assert.Equal(t, ir.ValidationModeValue, step.Descriptor.ValidationMode)
	assert.Equal(t, KindOutput, step.Kind())
}

func TestIODefinitionConstructorErrors(t *testing.T) {
	bad := []ir.IODescriptor{
		{ValueKind: "number"},
		{Reference: "x", ValueKind: "boolean"},
		{Reference: "x", ValueKind: "number", ValidationMode: "regex"},
		{Reference: "x", ValueKind: "number", ValidationMode: "list"},
	}
	for _, d := range bad {
		_, err := NewInputDefinition(d)
		assert.True(t, IsCode(err, ErrCodeInvalidParams), "%+v", d)
	}
}

func TestConstantStepWritesSortedKeys(t *testing.T) {
	step := NewConstantStep("rates", map[string]any{"uif_rate": 1.0, "cap": 177.12, "brackets": []any{}})

	rec, err := step.Execute(NewRecord())
	require.NoError(t, err)
	assert.Equal(t, []string{"brackets", "cap", "uif_rate"}, rec.Keys())
	assert.True(t, step.Loaded())
	assert.Empty(t, step.ResourcePath())
}

func TestConstantStepConflict(t *testing.T) {
	step := NewConstantStep("", map[string]any{"rate": 1.0})
	_, err := step.Execute(NewRecordFrom(map[string]any{"rate": 2.0}))
	assert.True(t, IsCode(err, ErrCodeKeyAlreadyDefined))
}

func TestResourceConstantStep(t *testing.T) {
	payload := map[string]any{
		"2024": map[string]any{"brackets": []any{map[string]any{"boundary": 10.0, "rate": 1.0}}},
		"2025": map[string]any{"brackets": []any{}},
	}

	t.Run("unloaded", func(t *testing.T) {
		step, err := NewResourceConstantStep("", "tables.json", "brackets", "")
		require.NoError(t, err)
		_, err = step.Execute(NewRecord())
		assert.True(t, IsCode(err, ErrCodeResourceNotLoaded))
		assert.Equal(t, "tables.json", KeyOf(err))
	})

	t.Run("key and query", func(t *testing.T) {
		step, err := NewResourceConstantStep("", "tables.json", "brackets", `"2024".brackets`)
		require.NoError(t, err)
		require.NoError(t, step.SetPayload(payload))

		rec, err := step.Execute(NewRecord())
		require.NoError(t, err)
		got, err := rec.Get("brackets")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("object spread", func(t *testing.T) {
		step, err := NewResourceConstantStep("", "tables.json", "", `"2024"`)
		require.NoError(t, err)
		require.NoError(t, step.SetPayload(payload))

		rec, err := step.Execute(NewRecord())
		require.NoError(t, err)
		assert.Equal(t, []string{"brackets"}, rec.Keys())
	})

	t.Run("non-object without key", func(t *testing.T) {
		step, err := NewResourceConstantStep("", "tables.json", "", "")
		require.NoError(t, err)
		err = step.SetPayload([]any{1.0})
		assert.True(t, IsCode(err, ErrCodeResourceFetch))
		assert.False(t, step.Loaded())
	})

	t.Run("query matches nothing", func(t *testing.T) {
		step, err := NewResourceConstantStep("", "tables.json", "x", "missing")
		require.NoError(t, err)
		err = step.SetPayload(payload)
		assert.True(t, IsCode(err, ErrCodeResourceFetch))
	})

	t.Run("invalid query", func(t *testing.T) {
		_, err := NewResourceConstantStep("", "tables.json", "x", "[[")
		assert.True(t, IsCode(err, ErrCodeInvalidParams))
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewResourceConstantStep("", "", "x", "")
		assert.True(t, IsCode(err, ErrCodeInvalidParams))
	})
}

func volumeSteps() (*ArithmeticStep, *ArithmeticStep) {
	area := NewArithmeticStep("area", "area", multiply, "width", "length")
	volume := NewArithmeticStep("volume", "volume", multiply, "height", "area")
	return area, volume
}

func TestCompositeOrdering(t *testing.T) {
	seed := map[string]any{"width": 5.0, "length": 5.0, "height": 4.0}

	t.Run("declared order", func(t *testing.T) {
		area, volume := volumeSteps()
		root := NewCompositeStep("box")
		require.NoError(t, root.Add(area))
		require.NoError(t, root.Add(volume))

		rec, err := root.Execute(NewRecordFrom(seed))
		require.NoError(t, err)

		a, _ := rec.Number("area")
		v, _ := rec.Number("volume")
		assert.Equal(t, 25.0, a)
		assert.Equal(t, 100.0, v)
	})

	t.Run("swapped order fails", func(t *testing.T) {
		area, volume := volumeSteps()
		root := NewCompositeStep("box")
		require.NoError(t, root.Add(volume))
		require.NoError(t, root.Add(area))

		rec, err := root.Execute(NewRecordFrom(seed))
		require.Error(t, err)

		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, ErrCodeKeyNotFound, e.Code)
		assert.Equal(t, "area", e.Key)
		assert.False(t, rec.Has("area"), "execution stops at the first failure")
	})
}

func TestCompositeErrorNotWrapped(t *testing.T) {
	inner := NewCompositeStep("inner")
	failing := NewArithmeticStep("", "r", multiply, "missing")
	require.NoError(t, inner.Add(failing))
	outer := NewCompositeStep("outer")
	require.NoError(t, outer.Add(inner))

	_, err := outer.Execute(NewRecord())
	e, ok := err.(*Error)
	require.True(t, ok, "composite must return the child error itself")
	assert.Equal(t, "missing", e.Key)
}

func TestCompositeRecordRetainsPartialWrites(t *testing.T) {
	root := NewCompositeStep("")
	require.NoError(t, root.Add(NewConstantStep("", map[string]any{"a": 1.0})))
	require.NoError(t, root.Add(NewArithmeticStep("", "r", multiply, "b")))

	rec, err := root.Execute(NewRecord())
	require.Error(t, err)
	assert.True(t, rec.Has("a"))
}

func TestCompositeAddRules(t *testing.T) {
	root := NewCompositeStep("root")
	child := NewCompositeStep("child")
	leaf := NewConstantStep("", nil)

	assert.True(t, IsCode(root.Add(nil), ErrCodeInvalidGraph))
	assert.True(t, IsCode(root.Add(root), ErrCodeInvalidGraph))

	require.NoError(t, root.Add(child))
	require.NoError(t, child.Add(leaf))
	assert.True(t, leaf.Attached())

	other := NewCompositeStep("other")
	assert.True(t, IsCode(other.Add(leaf), ErrCodeInvalidGraph), "leaf already owned")
	assert.True(t, IsCode(child.Add(root), ErrCodeInvalidGraph), "cycle")

	assert.Equal(t, 1, root.Len())
	assert.Len(t, child.Children(), 1)
}
