package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/lightsql/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Addr      string
	NoHistory bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyzer over HTTP",
		Long: `Start an HTTP server exposing the analyzer and the history.

Endpoints:
  GET  /healthz            Liveness check
  POST /v1/analyze         Analyze {"query": "...", "save": false}
  GET  /v1/history/        Recent analyses (?limit=N)
  GET  /v1/history/{id}    One recorded analysis
  GET  /v1/events          Server-sent events for every saved analysis`,
		Example: `  # Serve on the configured address (default :8766)
  lightsql serve

  # Serve on another port without a history
  lightsql serve --addr 127.0.0.1:9000 --no-history`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default from server_addr)")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Serve without the history routes")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)

	addr := cmdCtx.Cfg.ServerAddr
	if cmd.Flags().Changed("addr") {
		addr = opts.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvCfg := server.Config{
		Addr:    addr,
		Options: cmdCtx.Cfg.ParserOptions(),
		Logger:  cmdCtx.Logger,
	}
	if !opts.NoHistory {
		store, err := cmdCtx.OpenHistory(ctx)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer func() { _ = store.Close() }()
		srvCfg.Store = store
	}

	return serve(ctx, cmd, server.New(srvCfg), addr, cmdCtx.Logger)
}

func serve(ctx context.Context, cmd *cobra.Command, srv *server.Server, addr string, logger *slog.Logger) error {
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Serving on %s\n", addr)
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Press Ctrl+C to stop")
	logger.Info("server starting", slog.String("addr", addr))

	if err := srv.Serve(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
