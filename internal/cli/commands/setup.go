package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/lightsql/internal/cli/config"
	"github.com/leapstack-labs/lightsql/internal/cli/output"
	"github.com/leapstack-labs/lightsql/internal/history"
	"github.com/leapstack-labs/lightsql/pkg/lightsql"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
// The renderer writes to the command's configured streams.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// NewParser creates a parser for query with the configured options.
func (c *CommandContext) NewParser(query string) *lightsql.Parser {
	return lightsql.NewWithOptions(query, c.Cfg.ParserOptions())
}

// OpenHistory opens the configured history store.
// The caller must close it.
func (c *CommandContext) OpenHistory(ctx context.Context) (*history.Store, error) {
	return history.Open(ctx, c.Cfg.HistoryConfig(c.Logger))
}

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}
