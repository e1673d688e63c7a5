package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// sourceCLI marks history entries recorded by single-query commands.
const sourceCLI = "cli"

// AnalyzeOptions holds options for the analyze command.
type AnalyzeOptions struct {
	Input string
	Save  bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [SQL]",
		Short: "Analyze a query and print everything that was found",
		Long: `Analyze a query: its method, primary table, fields, all tables, joins,
subqueries and the individual statements.

The SQL is taken from the arguments, from --input, or from stdin.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json, yaml`,
		Example: `  # Analyze a query given inline
  lightsql analyze "SELECT id, name FROM users u JOIN orders o ON u.id = o.user_id"

  # Analyze a file and keep the result in the history
  lightsql analyze -i report.sql --save

  # Pipe SQL in and get JSON back
  cat report.sql | lightsql analyze -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	addInputFlag(cmd, &opts.Input)
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Record the analysis in the history")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	query, err := readQuery(cmd, args, opts.Input)
	if err != nil {
		return err
	}

	cmdCtx := NewCommandContext(cmd)
	rep := cmdCtx.NewParser(query).Analyze()
	cmdCtx.Logger.Debug("query analyzed",
		slog.String("method", rep.Method.String()),
		slog.Int("statements", len(rep.Statements)))

	if err := renderReport(cmdCtx.Renderer, rep); err != nil {
		return err
	}

	if !opts.Save {
		return nil
	}

	store, err := cmdCtx.OpenHistory(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	entry, err := store.Record(cmd.Context(), sourceCLI, rep)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmdCtx.Renderer.ErrWriter(), "Saved as %s\n", entry.ID)
	return nil
}
