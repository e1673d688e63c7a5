// Package config provides configuration management for the LightSQL CLI.
//
// Values are layered, lowest precedence first: built-in defaults, the
// lightsql.yaml file, LIGHTSQL_* environment variables and explicitly set
// command-line flags.
package config

import (
	"log/slog"

	"github.com/leapstack-labs/lightsql/internal/history"
	"github.com/leapstack-labs/lightsql/pkg/lightsql"
)

// Config holds all CLI configuration options.
type Config struct {
	OutputFormat    string   `koanf:"output"`
	Verbose         bool     `koanf:"verbose"`
	LogLevel        string   `koanf:"log_level"`
	HistoryPath     string   `koanf:"history_path"`
	HistoryDriver   string   `koanf:"history_driver"`
	HistoryDSN      string   `koanf:"history_dsn"`
	JoinKeywords    []string `koanf:"join_keywords"`
	LineComments    bool     `koanf:"line_comments"`
	ScanConcurrency int      `koanf:"scan_concurrency"`
	ScanExtensions  []string `koanf:"scan_extensions"`
	ServerAddr      string   `koanf:"server_addr"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultOutput          = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel        = "warn"
	DefaultHistoryFile     = ".lightsql/history.db"
	DefaultHistoryDriver   = DriverSQLite
	DefaultScanConcurrency = 4
	DefaultServerAddr      = ":8766"
)

// History drivers.
const (
	DriverSQLite   = history.DriverSQLite
	DriverPostgres = history.DriverPostgres
)

// DefaultScanExtensions lists the file extensions scanned when none are configured.
var DefaultScanExtensions = []string{".sql"}

// Default returns the configuration used when nothing else is loaded.
func Default() *Config {
	return &Config{
		OutputFormat:    DefaultOutput,
		LogLevel:        DefaultLogLevel,
		HistoryPath:     DefaultHistoryFile,
		HistoryDriver:   DefaultHistoryDriver,
		JoinKeywords:    append([]string(nil), lightsql.DefaultJoinKeywords...),
		ScanConcurrency: DefaultScanConcurrency,
		ScanExtensions:  append([]string(nil), DefaultScanExtensions...),
		ServerAddr:      DefaultServerAddr,
	}
}

// HistoryConfig returns the history store settings.
func (c *Config) HistoryConfig(logger *slog.Logger) history.Config {
	return history.Config{
		Driver: c.HistoryDriver,
		Path:   c.HistoryPath,
		DSN:    c.HistoryDSN,
		Logger: logger,
	}
}

// ParserOptions returns the scanner options described by the configuration.
func (c *Config) ParserOptions() lightsql.Options {
	return lightsql.Options{
		JoinKeywords: append([]string(nil), c.JoinKeywords...),
		LineComments: c.LineComments,
	}
}

// SlogLevel returns the configured log level. Verbose always means debug.
func (c *Config) SlogLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return level
}
