package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/taxflow/internal/server"
	"github.com/roach88/taxflow/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr   string
	Record bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve <pipeline>",
		Short: "Serve a pipeline over HTTP",
		Long: `Serve a pipeline over HTTP until interrupted.

Resources are loaded once at startup. POST /compute runs the pipeline on
a JSON object of inputs; GET /metrics exposes Prometheus metrics. With
--record every run is written to the history database and can be read
back from GET /runs/{id}.

Example:
  taxflow serve salary.json --addr :9090 --record`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "write every run to the history database")

	return cmd
}

func runServe(opts *ServeOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	graph, err := loadGraph(formatter, path)
	if err != nil {
		return err
	}

	var st *store.Store
	if opts.Record || cfg.Resources.UseStore {
		if st, err = opts.openStore(formatter); err != nil {
			return err
		}
		defer closeStore(st)
	}

	p, err := opts.newPipeline(graph, st)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid resource configuration", err)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	ctx, cancel := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := p.Prepare(ctx); err != nil {
		return formatter.Fail(ExitFailure, ErrCodePrepare, "failed to load resources", err)
	}

	srvOpts := []server.Option{server.WithLogger(slog.Default()), server.WithRunIDs(opts.runIDs())}
	if opts.Record {
		srvOpts = append(srvOpts, server.WithStore(st))
	}
	srv := server.New(p, graph.Hash, srvOpts...)

	addr := opts.Addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(addr) }()
	fmt.Fprintf(formatter.Diagnostics(), "Serving %s on %s. Press Ctrl-C to stop.\n", path, addr)

	select {
	case err := <-errCh:
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, "server failed", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown failed", err)
	}
	slog.Info("server stopped gracefully")
	return <-errCh
}
