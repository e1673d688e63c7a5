// Package history persists analysis reports so they can be listed and
// searched by table later.
//
// SQLite (pure Go) is the default backend; PostgreSQL is available through
// pgx. The schema is managed with embedded goose migrations.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver "pgx"
	_ "modernc.org/sqlite"             // SQLite driver (pure Go)

	"github.com/leapstack-labs/lightsql/pkg/lightsql"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("history entry not found")

// Config selects and configures the backend.
type Config struct {
	Driver string // DriverSQLite (default) or DriverPostgres
	Path   string // SQLite file, or MemoryPath
	DSN    string // Postgres connection string
	Logger *slog.Logger
}

// Entry is one recorded analysis.
type Entry struct {
	ID          string           `json:"id" yaml:"id"`
	Source      string           `json:"source" yaml:"source"`
	Query       string           `json:"query" yaml:"query"`
	Method      lightsql.Method  `json:"method" yaml:"method"`
	Statements  int              `json:"statements" yaml:"statements"`
	HasJoin     bool             `json:"has_join" yaml:"has_join"`
	HasSubQuery bool             `json:"has_subquery" yaml:"has_subquery"`
	Report      *lightsql.Report `json:"report" yaml:"report"`
	CreatedAt   time.Time        `json:"created_at" yaml:"created_at"`
}

// Store records and queries analyses.
type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
	now    func() time.Time
}

// Open connects to the configured backend and applies pending migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = openSQLite(cfg.Path)
	case DriverPostgres:
		db, err = openPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown history driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	if err := migrate(ctx, db, driver, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("history store opened", slog.String("driver", driver), slog.String("path", cfg.Path))
	return NewWithDB(db, driver, logger), nil
}

// NewWithDB wraps an existing connection without running migrations.
func NewWithDB(db *sql.DB, driver string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		db:     db,
		driver: driver,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite history requires a path")
	}

	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	dsn := MemoryPath + "?" + pragmas
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		dsn = "file:" + path + "?" + pragmas + "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// In-memory databases live per connection, and SQLite has a single writer.
	db.SetMaxOpenConns(1)
	return db, nil
}

func openPostgres(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres history requires a DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Version returns the applied schema version.
func (s *Store) Version(ctx context.Context) (int64, error) {
	return schemaVersion(ctx, s.db, s.driver)
}

// Record stores a report under a new ID. source names where the query came
// from, e.g. "cli", "repl", "api" or a file path.
func (s *Store) Record(ctx context.Context, source string, rep *lightsql.Report) (*Entry, error) {
	if rep == nil {
		return nil, fmt.Errorf("cannot record a nil report")
	}

	payload, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	entry := &Entry{
		ID:          uuid.New().String(),
		Source:      source,
		Query:       rep.Query,
		Method:      rep.Method,
		Statements:  len(rep.Statements),
		HasJoin:     rep.HasJoin,
		HasSubQuery: rep.HasSubQuery,
		Report:      rep,
		CreatedAt:   s.now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO analyses (id, source, query, method, statement_count, has_join, has_subquery, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		entry.ID, entry.Source, entry.Query, string(entry.Method), entry.Statements,
		entry.HasJoin, entry.HasSubQuery, string(payload), entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert analysis: %w", err)
	}

	insertRef := s.rebind(`INSERT INTO analysis_tables (analysis_id, table_name, role) VALUES (?, ?, ?)`)
	seen := make(map[lightsql.TableRef]struct{})
	for _, st := range rep.Statements {
		for _, ref := range st.References {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			if _, err := tx.ExecContext(ctx, insertRef, entry.ID, ref.Name, string(ref.Role)); err != nil {
				return nil, fmt.Errorf("failed to insert table reference %s: %w", ref.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit analysis: %w", err)
	}

	s.logger.Debug("analysis recorded",
		slog.String("id", entry.ID),
		slog.String("source", source),
		slog.Int("tables", len(seen)))
	return entry, nil
}

const selectEntry = `SELECT a.id, a.source, a.query, a.method, a.statement_count,
	a.has_join, a.has_subquery, a.report, a.created_at FROM analyses a`

// Get returns one entry by ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectEntry+` WHERE a.id = ?`), id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return entry, nil
}

// List returns the most recent entries first. A limit of zero or less
// returns every entry.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	query := selectEntry + ` ORDER BY a.created_at DESC, a.id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(ctx, "list analyses", query, args...)
}

// ByTable returns the entries that reference the named table in any role,
// most recent first. Matching ignores case.
func (s *Store) ByTable(ctx context.Context, table string) ([]*Entry, error) {
	query := selectEntry + ` WHERE a.id IN (
		SELECT t.analysis_id FROM analysis_tables t WHERE LOWER(t.table_name) = LOWER(?)
	) ORDER BY a.created_at DESC, a.id DESC`
	return s.query(ctx, "find analyses by table", query, table)
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM analysis_tables`); err != nil {
		return 0, fmt.Errorf("failed to clear table references: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM analyses`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear analyses: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit clear: %w", err)
	}

	removed, _ := result.RowsAffected()
	s.logger.Debug("history cleared", slog.Int64("removed", removed))
	return removed, nil
}

func (s *Store) query(ctx context.Context, what, query string, args ...any) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", what, err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to %s: %w", what, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", what, err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		entry     Entry
		method    string
		payload   string
		createdAt int64
	)
	err := row.Scan(&entry.ID, &entry.Source, &entry.Query, &method, &entry.Statements,
		&entry.HasJoin, &entry.HasSubQuery, &payload, &createdAt)
	if err != nil {
		return nil, err
	}

	entry.Method = lightsql.Method(method)
	entry.CreatedAt = time.Unix(0, createdAt).UTC()
	entry.Report = &lightsql.Report{}
	if err := json.Unmarshal([]byte(payload), entry.Report); err != nil {
		return nil, fmt.Errorf("corrupt report for %s: %w", entry.ID, err)
	}
	return &entry, nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
