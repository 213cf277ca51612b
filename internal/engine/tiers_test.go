package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func progressiveTable() []any {
	return []any{
		map[string]any{"boundary": 50000.0, "rate": 10.0},
		map[string]any{"boundary": 100000.0, "rate": 15.0},
		map[string]any{"boundary": "Infinity", "rate": 20.0},
	}
}

func TestMarginalTaxScenarios(t *testing.T) {
	twoBrackets := []any{
		map[string]any{"boundary": 50000.0, "rate": 10.0},
		map[string]any{"boundary": math.Inf(1), "rate": 20.0},
	}

	tests := []struct {
		name   string
		table  []any
		income float64
		want   float64
	}{
		{"two brackets", twoBrackets, 60000, 7000},
		{"three brackets", progressiveTable(), 120000, 16500},
		{"within first bracket", progressiveTable(), 30000, 3000},
		{"exactly at boundary", progressiveTable(), 50000, 5000},
		{"zero income", progressiveTable(), 0, 0},
		{"negative income", progressiveTable(), -100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TaxForTiers(tt.table, tt.income)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAdditiveCascade(t *testing.T) {
	table := []any{
		map[string]any{"max": 100.0, "value": 10.0},
		map[string]any{"max": 200.0, "value": 20.0},
		map[string]any{"max": 300.0, "value": 30.0},
	}

	tests := []struct {
		input float64
		want  float64
	}{
		{250, 60},
		{150, 30},
		{100, 30},
		{99, 10},
		{0, 10},
		{-1, 0},
	}
	for _, tt := range tests {
		got, err := LookupTiers(table, tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %v", tt.input)
	}
}

func TestFoldTiersEmptyIdentity(t *testing.T) {
	fn := func(acc float64, _ Tier, _, _ float64) (float64, error) { return acc + 1, nil }
	for _, x := range []float64{-5, 0, 1, 1e9} {
		got, err := FoldTiers(nil, x, 0.0, fn)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	}
}

func TestFoldTiersNegativeInputIdentity(t *testing.T) {
	tiers := []Tier{{"boundary": 10.0, "value": 1.0}, {"boundary": 20.0, "value": 2.0}}
	called := false
	fn := func(acc float64, _ Tier, _, _ float64) (float64, error) {
		called = true
		return acc + 1, nil
	}

	got, err := FoldTiers(tiers, -0.01, 0.0, fn)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
	assert.False(t, called)
}

func TestFoldTiersMonotonicity(t *testing.T) {
	tests := []struct {
		name  string
		tiers []Tier
		index string
	}{
		{"duplicate", []Tier{{"boundary": 10.0}, {"boundary": 10.0}}, "1"},
		{"decreasing", []Tier{{"boundary": 10.0}, {"boundary": 20.0}, {"boundary": 15.0}}, "2"},
		{"zero first", []Tier{{"boundary": 0.0}}, "0"},
		{"after infinity", []Tier{{"boundary": "Infinity"}, {"boundary": 5.0}}, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Input below every boundary still triggers the check.
			_, err := FoldTiers(tt.tiers, -1, 0.0, AdditiveTiers)
			require.Error(t, err)
			assert.True(t, IsCode(err, ErrCodeNonMonotonicTiers))

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.index, e.Details["index"])
		})
	}
}

func TestFoldTiersGenericAccumulator(t *testing.T) {
	tiers := []Tier{{"boundary": 10.0}, {"boundary": 20.0}, {"boundary": 30.0}}
	collect := func(acc []float64, _ Tier, prior, _ float64) ([]float64, error) {
		return append(acc, prior), nil
	}

	got, err := FoldTiers(tiers, 15, []float64(nil), collect)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 10}, got)
}

func TestTierFieldErrors(t *testing.T) {
	_, err := TaxForTiers([]any{map[string]any{"rate": 10.0}}, 5)
	assert.True(t, IsCode(err, ErrCodeInvalidNumber))

	_, err = TaxForTiers([]any{map[string]any{"boundary": 10.0}}, 5)
	assert.True(t, IsCode(err, ErrCodeKeyNotFound))

	_, err = LookupTiers([]any{map[string]any{"max": 10.0, "value": "ten"}}, 5)
	assert.True(t, IsCode(err, ErrCodeNonNumericValue))

	_, err = TaxForTiers("not a table", 5)
	assert.True(t, IsCode(err, ErrCodeTypeMismatch))

	_, err = TaxForTiers([]any{"x"}, 5)
	assert.True(t, IsCode(err, ErrCodeTypeMismatch))
}

func TestLimitedPercentage(t *testing.T) {
	assert.Equal(t, 5000.0, LimitedPercentage(60000, 50000, 10))
	assert.Equal(t, 1000.0, LimitedPercentage(10000, math.Inf(1), 10))
	assert.Equal(t, 0.0, LimitedPercentage(0, 100, 50))
}
