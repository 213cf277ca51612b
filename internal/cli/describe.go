package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/taxflow/internal/engine"
	"github.com/roach88/taxflow/internal/ir"
)

// NewInputsCommand creates the inputs command.
func NewInputsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "inputs <pipeline>",
		Short:         "List the inputs a pipeline expects",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args[0], cmd, engine.CollectInputs)
		},
	}
}

// NewOutputsCommand creates the outputs command.
func NewOutputsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "outputs <pipeline>",
		Short:         "List the outputs a pipeline declares",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args[0], cmd, engine.CollectOutputs)
		},
	}
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render <pipeline>",
		Short: "Print the step tree of a pipeline",
		Long: `Print the step tree of a pipeline, one step per line, with the
keys each step reads and writes. With --format json the pipeline
document is printed instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			graph, err := loadGraph(formatter, args[0])
			if err != nil {
				return err
			}
			if formatter.JSON() {
				return formatter.Success(graph.Node)
			}
			return rootOpts.renderer().Tree(formatter.Writer, graph.Root)
		},
	}
}

func runDescribe(opts *RootOptions, path string, cmd *cobra.Command, collect func(engine.Step) []ir.IODescriptor) error {
	formatter := opts.formatter(cmd)
	graph, err := loadGraph(formatter, path)
	if err != nil {
		return err
	}

	ds := collect(graph.Root)
	if ds == nil {
		ds = []ir.IODescriptor{}
	}
	if formatter.JSON() {
		return formatter.Success(ds)
	}
	return opts.renderer().Descriptors(formatter.Writer, ds)
}
