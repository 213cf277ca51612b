package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/taxflow/internal/harness"
)

// TestOptions are the flags of the test command.
type TestOptions struct {
	*RootOptions
	Update    bool
	Filter    string // glob over scenario names
	GoldenDir string // empty means <scenarios-dir>/golden
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult aggregates every scenario that ran.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r *TestResult) add(sr ScenarioResult) {
	r.Scenarios = append(r.Scenarios, sr)
	r.Total++
	if sr.Pass {
		r.Passed++
		return
	}
	r.Failed++
}

// failure returns the ExitError for a run with failed scenarios, or nil.
func (r *TestResult) failure() error {
	if r.Failed == 0 {
		return nil
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", r.Failed))
}

// NewTestCommand returns the test command.
func NewTestCommand(root *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: root}
	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files against their pipelines",
		Long: `Run every YAML scenario in a directory.

Each scenario names a pipeline, supplies inputs and resources, and states
the expected outputs or error code. When a golden file exists for a
scenario its canonical snapshot must match too.

Exits 1 when any scenario fails and 2 when the directory or a scenario
file cannot be loaded.

Examples:
  taxflow test ./scenarios
  taxflow test ./scenarios --filter "salary_*"
  taxflow test ./scenarios --update
  taxflow test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&opts.Update, "update", false, "rewrite golden files from the current results")
	flags.StringVar(&opts.Filter, "filter", "", "only run scenarios whose name matches this glob")
	flags.StringVar(&opts.GoldenDir, "golden-dir", "", "directory of golden files (default <scenarios-dir>/golden)")
	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", dir), nil)
	}
	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid filter pattern", err)
		}
	}

	scenarios, err := harness.LoadScenarios(dir)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, "failed to load scenarios", err)
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(dir, "golden")
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, s := range scenarios {
		if opts.Filter != "" {
			if ok, _ := filepath.Match(opts.Filter, s.Name); !ok {
				continue
			}
		}

		sr := runScenario(s, goldenDir, opts.Update)
		if !formatter.JSON() {
			printScenario(formatter, sr, opts.Update)
		}
		result.add(sr)
	}

	if formatter.JSON() {
		return reportJSON(formatter, &result)
	}
	return reportText(formatter, &result)
}

// runScenario executes a single scenario and checks its golden file.
func runScenario(s *harness.Scenario, goldenDir string, update bool) ScenarioResult {
	sr := ScenarioResult{Name: s.Name}

	result, err := harness.Run(s)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Pass = result.Pass
	sr.Errors = result.Errors

	snapshot, err := harness.Snapshot(s, result)
	if err != nil {
		return failScenario(sr, fmt.Sprintf("snapshot failed: %v", err))
	}

	goldenPath := filepath.Join(goldenDir, s.Name+".golden")
	if update {
		if err := os.MkdirAll(goldenDir, 0755); err != nil {
			return failScenario(sr, fmt.Sprintf("failed to create golden directory: %v", err))
		}
		if err := os.WriteFile(goldenPath, snapshot, 0644); err != nil {
			return failScenario(sr, fmt.Sprintf("failed to write golden file: %v", err))
		}
		return sr
	}

	want, err := os.ReadFile(goldenPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return sr
	case err != nil:
		return failScenario(sr, fmt.Sprintf("failed to read golden file: %v", err))
	}
	if !bytes.Equal(bytes.TrimSpace(want), snapshot) {
		return failScenario(sr, "snapshot does not match golden file (run with --update to regenerate)")
	}
	return sr
}

func failScenario(sr ScenarioResult, msg string) ScenarioResult {
	sr.Pass = false
	sr.Errors = append(sr.Errors, msg)
	return sr
}

func printScenario(formatter *OutputFormatter, sr ScenarioResult, update bool) {
	w := formatter.Writer
	switch {
	case sr.Pass && update:
		fmt.Fprintf(w, "✓ %s (golden updated)\n", sr.Name)
	case sr.Pass:
		fmt.Fprintf(w, "✓ %s\n", sr.Name)
	default:
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

func reportJSON(formatter *OutputFormatter, result *TestResult) error {
	resp := CLIResponse{Status: "ok", Data: result}
	failure := result.failure()
	if failure != nil {
		resp.Status = "error"
		resp.Error = &CLIError{Code: ErrCodeTestFailed, Message: failure.Error()}
	}
	if err := formatter.encode(resp); err != nil {
		return err
	}
	return failure
}

func reportText(formatter *OutputFormatter, result *TestResult) error {
	w := formatter.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if err := result.failure(); err != nil {
		return err
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
