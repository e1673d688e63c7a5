package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/lightsql/internal/cli/config"
	"github.com/leapstack-labs/lightsql/internal/cli/output"
	"github.com/leapstack-labs/lightsql/internal/history"
	"github.com/leapstack-labs/lightsql/pkg/lightsql"
)

const (
	sourceREPL         = "repl"
	replPrompt         = "lightsql> "
	replContinuePrompt = "     ...> "
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Analyze queries interactively",
		Long: `Start an interactive session. Type SQL ending with a semicolon to analyze
it; dot commands show details of the last analyzed query.

Commands:
  .help           Show help
  .statements     Statements of the last query
  .tables         Tables of the last query
  .fields         Fields of the last query
  .subqueries     Subqueries of the last query
  .quit / .exit   Exit the REPL`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, save)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Record every analyzed query in the history")
	return cmd
}

func runREPL(cmd *cobra.Command, save bool) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()

	// The REPL always renders for a terminal unless an output mode was forced.
	r := cmdCtx.Renderer
	if cmdCtx.Cfg.OutputFormat == string(output.ModeAuto) {
		r = output.NewRendererWithTTY(cmd.OutOrStdout(), cmd.ErrOrStderr(), r.IsTTY(), output.ModeText)
	}

	session := newREPLSession(cmdCtx.NewParser(""), r)
	if save {
		store, err := cmdCtx.OpenHistory(ctx)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer func() { _ = store.Close() }()
		session.record = func(rep *lightsql.Report) error {
			_, err := store.Record(ctx, sourceREPL, rep)
			return err
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     replHistoryFile(cmdCtx.Cfg),
		AutoComplete:    newDotCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.Println("LightSQL REPL")
	r.Println("Type .help for commands, .quit to exit")
	r.Println("")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			session.reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if session.handleLine(line) {
			return nil
		}
		if session.pending() {
			rl.SetPrompt(replContinuePrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
}

// replHistoryFile keeps the line history next to a SQLite analysis history.
func replHistoryFile(cfg *config.Config) string {
	if cfg.HistoryDriver != config.DriverSQLite || cfg.HistoryPath == history.MemoryPath {
		return ""
	}
	dir := filepath.Dir(cfg.HistoryPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "repl_history")
}

func newDotCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".statements"),
		readline.PcItem(".tables"),
		readline.PcItem(".fields"),
		readline.PcItem(".subqueries"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

// replSession accumulates input lines into queries and analyzes them.
type replSession struct {
	parser   *lightsql.Parser
	renderer *output.Renderer
	buf      strings.Builder
	last     *lightsql.Report
	record   func(*lightsql.Report) error
}

func newREPLSession(parser *lightsql.Parser, r *output.Renderer) *replSession {
	return &replSession{parser: parser, renderer: r}
}

func (s *replSession) reset() {
	s.buf.Reset()
}

// pending reports whether a query is being continued over several lines.
func (s *replSession) pending() bool {
	return s.buf.Len() > 0
}

// handleLine processes one input line and reports whether to exit.
func (s *replSession) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !s.pending() && strings.HasPrefix(line, ".") {
		return s.handleDotCommand(line)
	}

	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteString("\n")
		return false
	}

	query := s.buf.String()
	s.buf.Reset()

	s.last = s.parser.SetQuery(query).Analyze()
	if err := renderReport(s.renderer, s.last); err != nil {
		s.renderer.Error(err.Error())
	}
	if s.record != nil {
		if err := s.record(s.last); err != nil {
			s.renderer.Error(fmt.Sprintf("failed to save: %v", err))
		}
	}
	s.renderer.Println("")
	return false
}

func (s *replSession) handleDotCommand(line string) bool {
	command := strings.ToLower(strings.Fields(line)[0])
	r := s.renderer

	switch command {
	case ".quit", ".exit":
		return true
	case ".help":
		printREPLHelp(r)
		return false
	case ".statements", ".tables", ".fields", ".subqueries":
	default:
		r.Warning(fmt.Sprintf("unknown command: %s (type .help for commands)", command))
		return false
	}

	if s.last == nil {
		r.Warning("no query analyzed yet")
		return false
	}

	var err error
	switch command {
	case ".statements":
		err = renderStatements(r, s.last)
	case ".tables":
		err = renderTables(r, s.last, false)
	case ".fields":
		err = renderList(r, "Fields", s.last.Fields)
	case ".subqueries":
		err = renderList(r, "Subqueries", s.last.SubQueries)
	}
	if err != nil {
		r.Error(err.Error())
	}
	r.Println("")
	return false
}

func printREPLHelp(r *output.Renderer) {
	r.Println(`Commands:
  .help           Show this help message
  .statements     Statements of the last query
  .tables         Tables of the last query with their roles
  .fields         Fields of the last query's first statement
  .subqueries     Subqueries of the last query
  .quit / .exit   Exit the REPL

Tips:
  - Queries are analyzed once a line ends with a semicolon (;)
  - Use arrow keys to navigate history
  - Ctrl+C discards the query being typed`)
}
