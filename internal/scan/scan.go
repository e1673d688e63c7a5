// Package scan analyzes SQL files in bulk.
//
// Files are read and analyzed concurrently, each with its own parser, and
// results come back in input order. Watch re-analyzes files as they change.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/lightsql/pkg/lightsql"
)

// DefaultConcurrency is used when Options.Concurrency is not positive.
const DefaultConcurrency = 4

// Options configures a scan.
type Options struct {
	Parser      lightsql.Options
	Concurrency int
	Extensions  []string // lower case with leading dot; empty means ".sql"
	Logger      *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o Options) extensions() []string {
	if len(o.Extensions) == 0 {
		return []string{".sql"}
	}
	return o.Extensions
}

// Result is the outcome for one file. Exactly one of Report and Error is set.
type Result struct {
	Path   string           `json:"path" yaml:"path"`
	Report *lightsql.Report `json:"report,omitempty" yaml:"report,omitempty"`
	Error  string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary aggregates a set of results.
type Summary struct {
	Files      int      `json:"files" yaml:"files"`
	Failed     int      `json:"failed" yaml:"failed"`
	Statements int      `json:"statements" yaml:"statements"`
	WithJoin   int      `json:"with_join" yaml:"with_join"`
	Tables     []string `json:"tables" yaml:"tables"`
}

// Collect expands paths into a sorted list of files. Directories are walked
// recursively for files with one of the extensions, skipping hidden
// directories. Files named explicitly are always included.
func Collect(paths []string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = []string{".sql"}
	}

	seen := make(map[string]struct{})
	files := make([]string, 0)
	add := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if hasExtension(path, extensions) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}

	slices.Sort(files)
	return files, nil
}

func hasExtension(path string, extensions []string) bool {
	return slices.Contains(extensions, strings.ToLower(filepath.Ext(path)))
}

// Run analyzes files concurrently. A file that cannot be read yields a
// Result with Error set; only cancellation of ctx fails the whole run.
func Run(ctx context.Context, files []string, opts Options) ([]Result, error) {
	logger := opts.logger()
	limit := opts.Concurrency
	if limit < 1 {
		limit = DefaultConcurrency
	}

	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = analyzeFile(path, opts.Parser)
			if results[i].Error != "" {
				logger.Debug("scan failed", slog.String("path", path), slog.String("error", results[i].Error))
			} else {
				logger.Debug("scanned", slog.String("path", path),
					slog.Int("statements", len(results[i].Report.Statements)))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func analyzeFile(path string, opts lightsql.Options) Result {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from Collect or the user
	if err != nil {
		return Result{Path: path, Error: err.Error()}
	}
	return Result{
		Path:   path,
		Report: lightsql.NewWithOptions(string(content), opts).Analyze(),
	}
}

// Summarize counts files, failures, statements and joins, and collects the
// distinct tables across all successful results.
func Summarize(results []Result) Summary {
	sum := Summary{Files: len(results), Tables: make([]string, 0)}
	seen := make(map[string]struct{})
	for _, r := range results {
		if r.Report == nil {
			sum.Failed++
			continue
		}
		sum.Statements += len(r.Report.Statements)
		if r.Report.HasJoin {
			sum.WithJoin++
		}
		for _, table := range r.Report.Tables {
			if _, ok := seen[table]; ok {
				continue
			}
			seen[table] = struct{}{}
			sum.Tables = append(sum.Tables, table)
		}
	}
	return sum
}
