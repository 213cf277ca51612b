package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/taxflow/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit      int
	Pipeline   string
	FailedOnly bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Long: `List runs recorded with "taxflow run --record" or by the server.

Example:
  taxflow history --limit 5
  taxflow history --failed --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of runs (0 for all)")
	cmd.Flags().StringVar(&opts.Pipeline, "pipeline", "", "only runs of this pipeline hash")
	cmd.Flags().BoolVar(&opts.FailedOnly, "failed", false, "only failed runs")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.Limit < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, fmt.Sprintf("invalid limit %d", opts.Limit), nil)
	}

	st, err := opts.openStore(formatter)
	if err != nil {
		return err
	}
	defer closeStore(st)

	runs, err := st.ListRuns(commandContext(cmd), store.RunFilter{
		PipelineHash: opts.Pipeline,
		FailedOnly:   opts.FailedOnly,
		Limit:        opts.Limit,
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to list runs", err)
	}

	if formatter.JSON() {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		status := "ok"
		if r.Failed() {
			status = r.ErrorCode
			if r.ErrorKey != "" {
				status += "(" + r.ErrorKey + ")"
			}
		}
		fmt.Fprintf(formatter.Writer, "%-6d %s  %s  %s\n", r.Seq, r.ID, shortHash(r.PipelineHash), status)
	}
	return nil
}

// shortHash trims a pipeline hash for display.
func shortHash(h string) string {
	const keep = 12
	if len(h) <= keep {
		return h
	}
	return h[:keep]
}
