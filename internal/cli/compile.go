package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/taxflow/internal/compiler"
)

// CompileOptions are the flags of the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
}

// CompileResult describes a compiled pipeline document.
type CompileResult struct {
	Pipeline string `json:"pipeline"`
	Output   string `json:"output,omitempty"`
}

// NewCompileCommand returns the compile command.
func NewCompileCommand(root *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "compile <pipeline.cue>",
		Short: "Compile a CUE pipeline to a JSON document",
		Long: `Compile a CUE pipeline to the JSON pipeline document format.

The CUE file must define a concrete top-level "pipeline" field. The
resulting JSON is written to --output, or to stdout when no output file
is given. The graph is built to catch unknown step types and bad
parameters.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	graph, err := loadGraph(formatter, path)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(graph.Node, "", "  ")
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to encode pipeline", err)
	}
	data = append(data, '\n')

	if opts.Output == "" {
		if formatter.JSON() {
			return formatter.Success(graph.Node)
		}
		_, err := formatter.Writer.Write(data)
		return err
	}

	if err := os.WriteFile(opts.Output, data, 0644); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "writing output file", err)
	}

	if formatter.JSON() {
		return formatter.Success(CompileResult{Pipeline: graph.Hash, Output: opts.Output})
	}
	fmt.Fprintf(formatter.Writer, "✓ Compiled %s to %s\n", path, opts.Output)
	return nil
}
