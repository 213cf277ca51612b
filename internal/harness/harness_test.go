package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ScenarioDirectory(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 6)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_ExpectedErrorPopulatesResult(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/04_negative_gross.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Equal(t, "OUT_OF_RANGE", result.ErrorCode)
	assert.Equal(t, "gross", result.ErrorKey)
	assert.Empty(t, result.Outputs)
	assert.Equal(t, -1.0, result.Record["gross"], "partial record keeps the seed")
}

func TestRun_ReportsMismatches(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/01_salary_basic.yaml")
	require.NoError(t, err)
	s.Expect.Outputs["paye"] = 2000.0
	s.Expect.Record["missing"] = 1.0

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		`output "paye": got 2166.67, want 2000`,
		`record key "missing": missing, want 1`,
	}, result.Errors)
}

func TestRun_UnexpectedError(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/01_salary_basic.yaml")
	require.NoError(t, err)
	s.Inputs = map[string]any{"gross": 20000.0}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, "KEY_NOT_FOUND", result.ErrorCode)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_ExpectedErrorButSucceeded(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/02_salary_senior.yaml")
	require.NoError(t, err)
	s.Expect = Expect{Error: "OUT_OF_RANGE"}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, []string{"expected error OUT_OF_RANGE, run succeeded"}, result.Errors)
}

func TestRun_MissingPipeline(t *testing.T) {
	s := &Scenario{
		Name:     "missing",
		Pipeline: filepath.Join(t.TempDir(), "nope.json"),
		Inputs:   map[string]any{},
	}

	_, err := Run(s)
	assert.Error(t, err)
}

func TestRunWithGolden_InlineBracket(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/05_inline_bracket.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestValuesMatch(t *testing.T) {
	tests := []struct {
		name      string
		want, got any
		match     bool
	}{
		{"equal numbers", 1.0, 1.0, true},
		{"within tolerance", 0.3, 0.1 + 0.2, true},
		{"outside tolerance", 1.0, 1.001, false},
		{"int against float", 5, 5.0, true},
		{"number against string", 5.0, "5", false},
		{"strings", "A", "A", true},
		{"infinity", "Infinity", "Infinity", true},
		{"slices", []any{1.0, "x"}, []any{1.0, "x"}, true},
		{"slice length", []any{1.0}, []any{1.0, 2.0}, false},
		{"maps", map[string]any{"a": 1.0}, map[string]any{"a": 1.0 + 1e-12}, true},
		{"map missing key", map[string]any{"a": 1.0}, map[string]any{"b": 1.0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, valuesMatch(tt.want, tt.got))
		})
	}
}
