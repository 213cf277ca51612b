package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/taxflow/internal/ir"
)

// Snapshot is the canonical form of a scenario outcome.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	snap := map[string]any{
		"scenario": scenario.Name,
		"inputs":   orEmpty(scenario.Inputs),
		"record":   orEmpty(result.Record),
		"outputs":  orEmpty(result.Outputs),
		"pass":     result.Pass,
	}
	if result.ErrorCode != "" {
		snap["error"] = map[string]any{
			"code": result.ErrorCode,
			"key":  result.ErrorKey,
		}
	}
	return ir.MarshalCanonical(snap)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario could not be executed. A snapshot mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the scenario's golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
