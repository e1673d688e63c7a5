package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatementsCommand creates the statements command.
func NewStatementsCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "statements [SQL]",
		Short: "Split a query into statements",
		Long: `Split a query into its top-level statements and show the method of each.

Semicolons inside block comments or parentheses do not split. Quote
characters are dropped before splitting, so a quoted ';' still splits.`,
		Example: `  lightsql statements "SELECT 1; DELETE FROM logs"
  lightsql statements -i migration.sql -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args, input)
			if err != nil {
				return err
			}
			cmdCtx := NewCommandContext(cmd)
			return renderStatements(cmdCtx.Renderer, cmdCtx.NewParser(query).Analyze())
		},
	}

	addInputFlag(cmd, &input)
	return cmd
}

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	var (
		input     string
		joinsOnly bool
	)

	cmd := &cobra.Command{
		Use:   "tables [SQL]",
		Short: "List the tables a query references",
		Long: `List every table referenced by any statement with its role:
primary, plain (further FROM-list entries) or joined.

Aliases are never reported. Use --joins to list only joined tables.`,
		Example: `  lightsql tables "SELECT * FROM users u JOIN orders o ON u.id = o.user_id"
  lightsql tables --joins -i report.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args, input)
			if err != nil {
				return err
			}
			cmdCtx := NewCommandContext(cmd)
			return renderTables(cmdCtx.Renderer, cmdCtx.NewParser(query).Analyze(), joinsOnly)
		},
	}

	addInputFlag(cmd, &input)
	cmd.Flags().BoolVar(&joinsOnly, "joins", false, "Only list tables introduced by a join")
	return cmd
}

// NewFieldsCommand creates the fields command.
func NewFieldsCommand() *cobra.Command {
	var (
		input     string
		statement int
	)

	cmd := &cobra.Command{
		Use:   "fields [SQL]",
		Short: "List the fields of a statement",
		Long: `List the fields of the first statement, in source order and without
removing duplicates. Use --statement to pick another statement (1-based).`,
		Example: `  lightsql fields "SELECT id, name AS n FROM users"
  lightsql fields --statement 2 "SELECT 1; INSERT INTO t (a, b) VALUES (1, 2)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args, input)
			if err != nil {
				return err
			}
			cmdCtx := NewCommandContext(cmd)
			rep := cmdCtx.NewParser(query).Analyze()

			if statement < 1 {
				return fmt.Errorf("--statement must be at least 1")
			}
			fields := []string{}
			switch {
			case statement <= len(rep.Statements):
				fields = rep.Statements[statement-1].Fields
			case statement > 1 || len(rep.Statements) > 0:
				return fmt.Errorf("statement %d out of range (query has %d)", statement, len(rep.Statements))
			}
			return renderList(cmdCtx.Renderer, fmt.Sprintf("Fields of statement %d", statement), fields)
		},
	}

	addInputFlag(cmd, &input)
	cmd.Flags().IntVar(&statement, "statement", 1, "Statement number (1-based)")
	return cmd
}

// NewSubqueriesCommand creates the subqueries command.
func NewSubqueriesCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "subqueries [SQL]",
		Short: "List the subqueries of a query",
		Long: `List the distinct parenthesized SELECT subqueries found in any statement,
without their enclosing parentheses.`,
		Example: `  lightsql subqueries "SELECT * FROM t WHERE id IN (SELECT id FROM u)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args, input)
			if err != nil {
				return err
			}
			cmdCtx := NewCommandContext(cmd)
			return renderList(cmdCtx.Renderer, "Subqueries", cmdCtx.NewParser(query).SubQueries())
		},
	}

	addInputFlag(cmd, &input)
	return cmd
}
