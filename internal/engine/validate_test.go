package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidNumber(t *testing.T) {
	valid := []struct {
		name  string
		input any
		want  float64
	}{
		{"float64", 1.5, 1.5},
		{"int", 7, 7},
		{"int64", int64(-3), -3},
		{"uint8", uint8(9), 9},
		{"float32", float32(0.5), 0.5},
		{"zero", 0.0, 0},
		{"json number", json.Number("12.25"), 12.25},
	}
	for _, tt := range valid {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidNumber(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	invalid := []struct {
		name  string
		input any
	}{
		{"nan", math.NaN()},
		{"+inf", math.Inf(1)},
		{"-inf", math.Inf(-1)},
		{"bool", true},
		{"numeric string", "42"},
		{"nil", nil},
		{"array", []any{1.0}},
		{"object", map[string]any{"a": 1.0}},
		{"func", func() {}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidNumber(tt.input)
			require.Error(t, err)
			assert.True(t, IsCode(err, ErrCodeInvalidNumber))
		})
	}
}

func TestValidNumberNonZero(t *testing.T) {
	got, err := ValidNumberNonZero(-2.0)
	require.NoError(t, err)
	assert.Equal(t, -2.0, got)

	_, err = ValidNumberNonZero(0)
	assert.True(t, IsCode(err, ErrCodeDivisionByZero))

	_, err = ValidNumberNonZero("x")
	assert.True(t, IsCode(err, ErrCodeInvalidNumber))
}

func TestValidNumberOrInfinite(t *testing.T) {
	for _, in := range []any{math.Inf(1), "Infinity", "+Infinity"} {
		got, err := ValidNumberOrInfinite(in)
		require.NoError(t, err)
		assert.True(t, math.IsInf(got, 1))
	}

	got, err := ValidNumberOrInfinite(50000.0)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, got)

	for _, in := range []any{math.Inf(-1), "-Infinity", "inf", math.NaN(), false} {
		_, err := ValidNumberOrInfinite(in)
		assert.True(t, IsCode(err, ErrCodeInvalidNumber), "%v", in)
	}
}

func TestValidString(t *testing.T) {
	s, err := ValidString("")
	require.NoError(t, err)
	assert.Equal(t, "", s)

	_, err = ValidString(3.0)
	assert.True(t, IsCode(err, ErrCodeTypeMismatch))
}
