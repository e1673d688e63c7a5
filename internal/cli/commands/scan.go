package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/lightsql/internal/cli/config"
	"github.com/leapstack-labs/lightsql/internal/history"
	"github.com/leapstack-labs/lightsql/internal/scan"
)

// ScanOptions holds options for the scan command.
type ScanOptions struct {
	Concurrency int
	Extensions  []string
	Watch       bool
	Save        bool
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	opts := &ScanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <path>...",
		Short: "Analyze every SQL file under the given paths",
		Long: `Analyze SQL files concurrently. Directories are searched recursively
for files with one of the configured extensions (scan_extensions, default .sql);
files named explicitly are always analyzed.

With --watch the files are re-analyzed whenever they change, until interrupted.`,
		Example: `  # Analyze a project
  lightsql scan ./queries

  # Re-analyze on every save and record the results
  lightsql scan ./queries --watch --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "Files analyzed in parallel (default from scan_concurrency)")
	cmd.Flags().StringSliceVar(&opts.Extensions, "ext", nil, "File extensions to scan (default from scan_extensions)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-analyze files when they change")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Record every analysis in the history")

	return cmd
}

func runScan(cmd *cobra.Command, paths []string, opts *ScanOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	scanOpts := scan.Options{
		Parser:      cmdCtx.Cfg.ParserOptions(),
		Concurrency: cmdCtx.Cfg.ScanConcurrency,
		Extensions:  cmdCtx.Cfg.ScanExtensions,
		Logger:      cmdCtx.Logger,
	}
	if cmd.Flags().Changed("concurrency") {
		scanOpts.Concurrency = opts.Concurrency
	}
	if cmd.Flags().Changed("ext") {
		scanOpts.Extensions = config.NormalizeExtensions(opts.Extensions)
	}

	var store *history.Store
	if opts.Save {
		var err error
		store, err = cmdCtx.OpenHistory(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer func() { _ = store.Close() }()
	}

	files, err := scan.Collect(paths, scanOpts.Extensions)
	if err != nil {
		return err
	}
	cmdCtx.Logger.Debug("collected files", slog.Int("files", len(files)))

	results, err := scan.Run(cmd.Context(), files, scanOpts)
	if err != nil {
		return err
	}
	if err := saveResults(cmd.Context(), store, results, cmdCtx.Logger); err != nil {
		return err
	}
	if err := renderScan(r, results); err != nil {
		return err
	}

	if !opts.Watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintln(r.ErrWriter(), "Watching for changes (Ctrl+C to stop)")
	return scan.Watch(ctx, paths, scanOpts, func(results []scan.Result) {
		if err := saveResults(ctx, store, results, cmdCtx.Logger); err != nil {
			r.Error(err.Error())
		}
		if err := renderScan(r, results); err != nil {
			r.Error(err.Error())
		}
	})
}

// saveResults records every successful result, using the file path as source.
func saveResults(ctx context.Context, store *history.Store, results []scan.Result, logger *slog.Logger) error {
	if store == nil {
		return nil
	}
	for _, res := range results {
		if res.Report == nil {
			continue
		}
		entry, err := store.Record(ctx, res.Path, res.Report)
		if err != nil {
			return err
		}
		logger.Debug("scan result saved", slog.String("path", res.Path), slog.String("id", entry.ID))
	}
	return nil
}
