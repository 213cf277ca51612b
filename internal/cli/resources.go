package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/taxflow/internal/resource"
	"github.com/roach88/taxflow/internal/store"
)

// ResourceSummary is the listing form of a stored resource.
type ResourceSummary struct {
	Path        string `json:"path"`
	ContentHash string `json:"content_hash"`
	Seq         int64  `json:"seq"`
}

// NewResourcesCommand creates the resources command group.
func NewResourcesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Manage resources stored in the database",
		Long: `Manage resource payloads (tax tables, rates) stored in the database.

Stored resources are used by run and serve when resources.use_store is
enabled in the config, ahead of the resource directory and base URL.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "put <path> <file>",
		Short: "Store a JSON file under a resource path",
		Example: `  taxflow resources put tables/2024.json ./tables/2024.json
  taxflow resources put brackets.json ./brackets.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResourcesPut(rootOpts, args[0], args[1], cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List stored resources",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResourcesList(rootOpts, cmd)
		},
	})

	return cmd
}

func runResourcesPut(opts *RootOptions, path, file string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, err := os.ReadFile(file)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "failed to read resource file", err)
	}
	payload, err := resource.Decode(data)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, "resource file is not valid JSON", err)
	}

	st, err := opts.openStore(formatter)
	if err != nil {
		return err
	}
	defer closeStore(st)

	res, err := st.PutResource(commandContext(cmd), path, payload)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to store resource", err)
	}

	summary := summarize(res)
	if formatter.JSON() {
		return formatter.Success(summary)
	}
	fmt.Fprintf(formatter.Writer, "✓ Stored %s (seq %d, %s)\n", summary.Path, summary.Seq, summary.ContentHash)
	return nil
}

func runResourcesList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore(formatter)
	if err != nil {
		return err
	}
	defer closeStore(st)

	resources, err := st.ListResources(commandContext(cmd))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to list resources", err)
	}

	summaries := make([]ResourceSummary, len(resources))
	for i, r := range resources {
		summaries[i] = summarize(r)
	}

	if formatter.JSON() {
		return formatter.Success(summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(formatter.Writer, "No resources stored.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(formatter.Writer, "%-6d %s  %s\n", s.Seq, s.Path, s.ContentHash)
	}
	return nil
}

func summarize(r store.Resource) ResourceSummary {
	return ResourceSummary{Path: r.Path, ContentHash: r.ContentHash, Seq: r.Seq}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
