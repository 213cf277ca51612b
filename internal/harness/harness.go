package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/taxflow/internal/compiler"
	"github.com/roach88/taxflow/internal/engine"
	"github.com/roach88/taxflow/internal/ir"
	"github.com/roach88/taxflow/internal/registry"
	"github.com/roach88/taxflow/internal/resource"
)

// Tolerance is the absolute difference allowed between expected and
// actual numbers.
const Tolerance = 1e-9

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load the pipeline document (.json or .cue) and build it with the
//     default registry
//  2. Load resources from the inline map, then from files next to the scenario
//  3. Run the pipeline against the scenario inputs
//  4. Compare the outcome with the expect clause
//
// A returned error means the scenario could not be executed at all; a run
// that fails or mismatches is reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	node, err := compiler.LoadFile(scenario.PipelinePath())
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}

	// Suppress build and loader logs in scenario runs.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	result := NewResult()
	runErr := execute(ctx, scenario, *node, logger, result)

	if runErr != nil {
		result.ErrorCode = errorCode(runErr)
		result.ErrorKey = engine.KeyOf(runErr)
	}
	checkExpectations(scenario, result, runErr)
	return result, nil
}

func execute(ctx context.Context, scenario *Scenario, node ir.Node, logger *slog.Logger, result *Result) error {
	root, err := registry.NewDefault(registry.WithLogger(logger)).Build(node)
	if err != nil {
		return err
	}

	dir := scenario.Dir
	if dir == "" {
		dir = "."
	}
	fetcher := resource.Chain{
		engine.MapFetcher(scenario.Resources),
		resource.NewDirFetcher(dir),
	}

	p := engine.NewPipeline(root,
		engine.WithFetcher(fetcher),
		engine.WithLogger(logger))

	rec, err := p.Run(ctx, scenario.Inputs)
	if rec != nil {
		result.Record = rec.Snapshot()
	}
	if err != nil {
		return err
	}

	outputs, err := p.Results(rec)
	if err != nil {
		return err
	}
	result.Outputs = outputs
	return nil
}

// checkExpectations records every unmet expectation on result.
func checkExpectations(scenario *Scenario, result *Result, runErr error) {
	exp := scenario.Expect

	switch {
	case exp.Error != "" && runErr == nil:
		result.AddError(fmt.Sprintf("expected error %s, run succeeded", exp.Error))
	case exp.Error != "" && result.ErrorCode != exp.Error:
		result.AddError(fmt.Sprintf("expected error %s, got %v", exp.Error, runErr))
	case exp.Error == "" && runErr != nil:
		result.AddError(fmt.Sprintf("unexpected error: %v", runErr))
	}
	if exp.ErrorKey != "" && runErr != nil && result.ErrorKey != exp.ErrorKey {
		result.AddError(fmt.Sprintf("expected error key %q, got %q", exp.ErrorKey, result.ErrorKey))
	}

	for _, ref := range ir.SortedKeys(exp.Outputs) {
		compareValue(result, "output", ref, exp.Outputs[ref], result.Outputs)
	}
	for _, key := range ir.SortedKeys(exp.Record) {
		compareValue(result, "record key", key, exp.Record[key], result.Record)
	}
}

func compareValue(result *Result, what, key string, want any, actual map[string]any) {
	got, ok := actual[key]
	if !ok {
		result.AddError(fmt.Sprintf("%s %q: missing, want %v", what, key, want))
		return
	}
	if !valuesMatch(want, got) {
		result.AddError(fmt.Sprintf("%s %q: got %v, want %v", what, key, got, want))
	}
}
