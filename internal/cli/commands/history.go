package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of entries history list shows.
const defaultHistoryLimit = 20

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded analyses",
		Long: `Browse analyses recorded with --save by analyze, scan, the REPL or the API.

The history lives in history_path (SQLite, default .lightsql/history.db) or in
the PostgreSQL database named by history_dsn when history_driver is postgres.`,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryTablesCommand())
	cmd.AddCommand(newHistoryClearCommand())

	return cmd
}

func newHistoryListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			store, err := cmdCtx.OpenHistory(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer func() { _ = store.Close() }()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return renderEntries(cmdCtx.Renderer, "History", entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Maximum entries to show (0 for all)")
	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			store, err := cmdCtx.OpenHistory(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer func() { _ = store.Close() }()

			entry, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderEntry(cmdCtx.Renderer, entry)
		},
	}
}

func newHistoryTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables <table>",
		Short: "List analyses that reference a table",
		Long:  `List recorded analyses that reference the table in any role. Matching ignores case.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			store, err := cmdCtx.OpenHistory(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer func() { _ = store.Close() }()

			entries, err := store.ByTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderEntries(cmdCtx.Renderer, fmt.Sprintf("Analyses referencing %s", args[0]), entries)
		},
	}
}

func newHistoryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			store, err := cmdCtx.OpenHistory(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer func() { _ = store.Close() }()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Removed %d entries", removed))
			return nil
		},
	}
}
