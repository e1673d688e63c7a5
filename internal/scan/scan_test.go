package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/lightsql/internal/testutil"
	"github.com/leapstack-labs/lightsql/pkg/lightsql"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func setupTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "users.sql"), "SELECT id, name FROM users")
	writeFile(t, filepath.Join(root, "reports", "orders.SQL"), "SELECT * FROM orders o JOIN users u ON o.user_id = u.id")
	writeFile(t, filepath.Join(root, "reports", "notes.txt"), "not sql")
	writeFile(t, filepath.Join(root, "schema.ddl"), "CREATE TABLE t (id INT)")
	writeFile(t, filepath.Join(root, ".cache", "stale.sql"), "SELECT 1")
	return root
}

func TestCollect(t *testing.T) {
	root := setupTree(t)

	tests := []struct {
		name       string
		paths      []string
		extensions []string
		want       []string
	}{
		{
			name:  "default extension, recursive, case insensitive",
			paths: []string{root},
			want: []string{
				filepath.Join(root, "reports", "orders.SQL"),
				filepath.Join(root, "users.sql"),
			},
		},
		{
			name:       "custom extensions",
			paths:      []string{root},
			extensions: []string{".ddl"},
			want:       []string{filepath.Join(root, "schema.ddl")},
		},
		{
			name:  "explicit file ignores extension",
			paths: []string{filepath.Join(root, "reports", "notes.txt")},
			want:  []string{filepath.Join(root, "reports", "notes.txt")},
		},
		{
			name:  "duplicates removed",
			paths: []string{filepath.Join(root, "users.sql"), root},
			want: []string{
				filepath.Join(root, "reports", "orders.SQL"),
				filepath.Join(root, "users.sql"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collect(tt.paths, tt.extensions)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollect_MissingPath(t *testing.T) {
	_, err := Collect([]string{filepath.Join(t.TempDir(), "missing")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat")
}

func TestRun(t *testing.T) {
	root := setupTree(t)
	files, err := Collect([]string{root}, nil)
	require.NoError(t, err)
	files = append(files, filepath.Join(root, "gone.sql"))

	for _, concurrency := range []int{0, 1, 8} {
		results, err := Run(context.Background(), files, Options{
			Concurrency: concurrency,
			Logger:      testutil.NewTestLogger(t),
		})
		require.NoError(t, err)
		require.Len(t, results, 3)

		// Results keep input order.
		assert.Equal(t, files[0], results[0].Path)
		require.NotNil(t, results[0].Report)
		assert.True(t, results[0].Report.HasJoin)
		assert.Equal(t, []string{"orders"}, results[0].Report.Tables[:1])

		require.NotNil(t, results[1].Report)
		assert.Equal(t, lightsql.MethodSelect, results[1].Report.Method)
		assert.Equal(t, []string{"id", "name"}, results[1].Report.Fields)

		assert.Nil(t, results[2].Report)
		assert.NotEmpty(t, results[2].Error)
	}
}

func TestRun_ParserOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.sql")
	writeFile(t, path, "SELECT a -- trailing\nFROM t")

	results, err := Run(context.Background(), []string{path}, Options{
		Parser: lightsql.Options{LineComments: true},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	table := results[0].Report.Table
	require.NotNil(t, table)
	assert.Equal(t, "t", *table)
	assert.Equal(t, []string{"a"}, results[0].Report.Fields)
}

func TestRun_Cancelled(t *testing.T) {
	root := setupTree(t)
	files, err := Collect([]string{root}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Run(ctx, files, Options{Concurrency: 1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_LogsFailures(t *testing.T) {
	logger, logs := testutil.NewCaptureLogger()
	missing := filepath.Join(t.TempDir(), "missing.sql")

	results, err := Run(context.Background(), []string{missing}, Options{Logger: logger})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, logs.Contains("msg=\"scan failed\""))
	assert.True(t, logs.Contains(missing))
}

func TestRun_Empty(t *testing.T) {
	results, err := Run(context.Background(), nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Path: "a.sql", Report: lightsql.New("SELECT * FROM a JOIN b ON a.id = b.id; DELETE FROM c").Analyze()},
		{Path: "b.sql", Report: lightsql.New("SELECT * FROM b").Analyze()},
		{Path: "c.sql", Error: "permission denied"},
	}

	sum := Summarize(results)

	assert.Equal(t, 3, sum.Files)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 3, sum.Statements)
	assert.Equal(t, 1, sum.WithJoin)
	assert.Equal(t, []string{"a", "b", "c"}, sum.Tables)
}

func TestWatch(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "live.sql")
	writeFile(t, target, "SELECT 1")
	ignored := filepath.Join(root, "notes.txt")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan []Result, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{root}, Options{Logger: testutil.NewTestLogger(t)}, func(results []Result) {
			select {
			case batches <- results:
			default:
			}
		})
	}()

	// The watcher starts asynchronously, so keep touching the file until a batch arrives.
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(3 * DebounceInterval)
	defer ticker.Stop()

	var got []Result
	for got == nil {
		select {
		case got = <-batches:
		case <-ticker.C:
			writeFile(t, ignored, "ignored")
			writeFile(t, target, "SELECT * FROM live_table")
		case <-deadline:
			t.Fatal("no batch received")
		}
	}

	require.Len(t, got, 1)
	assert.Equal(t, target, got[0].Path)
	require.NotNil(t, got[0].Report)
	assert.Equal(t, []string{"live_table"}, got[0].Report.Tables)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_MissingPath(t *testing.T) {
	err := Watch(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, Options{}, func([]Result) {})
	require.Error(t, err)
}

func TestWatchSet_Matches(t *testing.T) {
	set := &watchSet{
		files:      map[string]struct{}{"/explicit/only.txt": {}},
		dirs:       map[string]struct{}{"/tree": {}, "/tree/sub": {}},
		extensions: []string{".sql"},
	}

	assert.True(t, set.matches("/explicit/only.txt"))
	assert.False(t, set.matches("/explicit/sibling.sql"))
	assert.True(t, set.matches("/tree/sub/q.sql"))
	assert.False(t, set.matches("/tree/q.txt"))
	assert.False(t, set.matches("/elsewhere/q.sql"))
}
