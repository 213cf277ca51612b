package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/taxflow/internal/compiler"
	"github.com/roach88/taxflow/internal/engine"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Pipeline string                     `json:"pipeline"`
	Steps    map[engine.Kind]int        `json:"steps"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <pipeline>",
		Short: "Check a pipeline without running it",
		Long: `Build a pipeline graph and check its key flow without running it.

Reports keys read before any step writes them, keys written twice,
outputs nothing produces, duplicate input or output references and empty
composites. Resources are not fetched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	graph, err := loadGraph(formatter, path)
	if err != nil {
		return err
	}

	errs := compiler.Validate(graph.Root)
	result := ValidationResult{
		Valid:    len(errs) == 0,
		Pipeline: graph.Hash,
		Steps:    engine.Walk(graph.Root, engine.NewKindCounter()).Counts,
		Errors:   errs,
	}
	formatter.VerboseLog("Steps: %v", result.Steps)

	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeInvalidGraph, Message: errs[0].Error()}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		outputValidationText(formatter, result)
	}

	if !result.Valid {
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}
	return nil
}

func outputValidationText(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	if result.Valid {
		fmt.Fprintln(w, "✓ Pipeline valid")
		return
	}

	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s: %s\n", e.Code, e.Message)
		if e.Field != "" {
			fmt.Fprintf(w, "    at %s\n", e.Field)
		}
	}
}
