package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/taxflow/internal/engine"
	"github.com/roach88/taxflow/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Inputs     []string
	InputsFile string
	Record     bool
}

// RunOutput is the JSON payload of a successful run.
type RunOutput struct {
	RunID   string         `json:"run_id"`
	Outputs map[string]any `json:"outputs"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <pipeline>",
		Short: "Run a pipeline against a set of inputs",
		Long: `Run a pipeline once and print its declared outputs.

Inputs come from an optional JSON or YAML file, then from --input
assignments, which win on conflict. With --record the run, including a
failed one, is written to the run history database.

Example:
  taxflow run salary.json --input gross=480000 --input age=40
  taxflow run salary.cue --inputs employee.yaml --record`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Inputs, "input", "i", nil, "input assignment key=value (repeatable)")
	cmd.Flags().StringVar(&opts.InputsFile, "inputs", "", "JSON or YAML file of inputs")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "write the run to the history database")

	return cmd
}

func runPipeline(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	inputs, err := parseInputs(opts.InputsFile, opts.Inputs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid inputs", err)
	}

	graph, err := loadGraph(formatter, path)
	if err != nil {
		return err
	}

	var st *store.Store
	if opts.Record || opts.config().Resources.UseStore {
		if st, err = opts.openStore(formatter); err != nil {
			return err
		}
		defer closeStore(st)
	}

	p, err := opts.newPipeline(graph, st)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid resource configuration", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.Prepare(ctx); err != nil {
		return formatter.Fail(ExitFailure, ErrCodePrepare, "failed to load resources", err)
	}

	runID := opts.runIDs().Generate()
	rec, runErr := p.Run(ctx, inputs)
	var outputs map[string]any
	if runErr == nil {
		outputs, runErr = p.Results(rec)
	}
	formatter.VerboseLog("Run %s finished (record keys: %d)", runID, rec.Len())

	if opts.Record {
		if err := recordRun(ctx, st, runID, graph.Hash, inputs, rec, outputs, runErr); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to record run", err)
		}
		formatter.VerboseLog("Recorded run %s", runID)
	}

	if runErr != nil {
		_ = formatter.Error(ErrCodeRunFailed, runErr.Error(), map[string]string{
			"code": string(engine.CodeOf(runErr)),
			"key":  engine.KeyOf(runErr),
		})
		return WrapExitError(ExitFailure, "pipeline failed", runErr)
	}

	if formatter.JSON() {
		return formatter.Success(RunOutput{RunID: runID, Outputs: outputs})
	}

	return opts.renderer().Results(formatter.Writer, p.Outputs(), outputs)
}

func recordRun(ctx context.Context, st *store.Store, id, hash string, inputs map[string]any, rec *engine.Record, outputs map[string]any, runErr error) error {
	run, err := store.NewRun(id, hash, inputs, rec, outputs, runErr)
	if err != nil {
		return err
	}
	_, err = st.WriteRun(ctx, run)
	return err
}
