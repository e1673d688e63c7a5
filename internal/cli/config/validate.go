package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

var validOutputs = []string{"auto", "text", "markdown", "json", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(validOutputs, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected one of: %s)", c.OutputFormat, strings.Join(validOutputs, ", "))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}

	switch c.HistoryDriver {
	case DriverSQLite:
		if c.HistoryPath == "" {
			return fmt.Errorf("history_path is required for the %s history driver", DriverSQLite)
		}
	case DriverPostgres:
		if c.HistoryDSN == "" {
			return fmt.Errorf("history_dsn is required for the %s history driver\nHint: set LIGHTSQL_HISTORY_DSN or history_dsn in lightsql.yaml", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown history_driver %q (expected %s or %s)", c.HistoryDriver, DriverSQLite, DriverPostgres)
	}

	if c.ScanConcurrency < 1 {
		return fmt.Errorf("scan_concurrency must be at least 1, got %d", c.ScanConcurrency)
	}

	return nil
}
