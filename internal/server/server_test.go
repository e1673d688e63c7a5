package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/lightsql/internal/history"
	"github.com/leapstack-labs/lightsql/internal/testutil"
	"github.com/leapstack-labs/lightsql/pkg/lightsql"
)

func setupHistory(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(context.Background(), history.Config{
		Path:   history.MemoryPath,
		Logger: testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestServer(t *testing.T, store Store) *Server {
	t.Helper()
	return New(Config{Store: store, Logger: testutil.NewTestLogger(t)})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// failingStore fails every call.
type failingStore struct{}

func (failingStore) Record(context.Context, string, *lightsql.Report) (*history.Entry, error) {
	return nil, errors.New("disk full")
}

func (failingStore) Get(context.Context, string) (*history.Entry, error) {
	return nil, errors.New("disk full")
}

func (failingStore) List(context.Context, int) ([]*history.Entry, error) {
	return nil, errors.New("disk full")
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, nil).Handler(), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestLogger(t *testing.T) {
	logger, logs := testutil.NewCaptureLogger()
	h := New(Config{Logger: logger}).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, logs.Contains("msg=request"))
	assert.True(t, logs.Contains("path=/healthz"))
	assert.True(t, logs.Contains("status=200"))
}

func TestAnalyze(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodPost, "/v1/analyze",
		`{"query": "SELECT u.name FROM users u JOIN orders o ON u.id = o.user_id"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var rep lightsql.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, lightsql.MethodSelect, rep.Method)
	require.NotNil(t, rep.Table)
	assert.Equal(t, "users", *rep.Table)
	assert.Equal(t, []string{"orders"}, rep.JoinTables)
	assert.True(t, rep.HasJoin)
}

func TestAnalyze_UsesParserOptions(t *testing.T) {
	srv := New(Config{Options: lightsql.Options{JoinKeywords: []string{"STRAIGHT_JOIN"}}})

	rec := do(t, srv.Handler(), http.MethodPost, "/v1/analyze",
		`{"query": "SELECT * FROM a STRAIGHT_JOIN b ON a.id = b.id"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var rep lightsql.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, []string{"b"}, rep.JoinTables)
}

func TestAnalyze_EmptyQuery(t *testing.T) {
	rec := do(t, newTestServer(t, nil).Handler(), http.MethodPost, "/v1/analyze", `{"query": ""}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var rep lightsql.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, lightsql.MethodNone, rep.Method)
	assert.Nil(t, rep.Table)
	assert.Empty(t, rep.Statements)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name   string
		store  Store
		body   string
		status int
		errMsg string
	}{
		{"malformed body", nil, `{"query":`, http.StatusBadRequest, "invalid request body"},
		{"wrong type", nil, `{"query": 42}`, http.StatusBadRequest, "invalid request body"},
		{"save without store", nil, `{"query": "SELECT 1", "save": true}`, http.StatusServiceUnavailable, "history is not configured"},
		{"store failure", failingStore{}, `{"query": "SELECT 1", "save": true}`, http.StatusInternalServerError, "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(t, tt.store).Handler(), http.MethodPost, "/v1/analyze", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.errMsg)
		})
	}
}

func TestAnalyze_SaveAndHistory(t *testing.T) {
	store := setupHistory(t)
	h := newTestServer(t, store).Handler()

	rec := do(t, h, http.MethodPost, "/v1/analyze", `{"query": "DELETE FROM logs", "save": true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/v1/history/"), location)

	t.Run("get", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, location, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var entry history.Entry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
		assert.Equal(t, strings.TrimPrefix(location, "/v1/history/"), entry.ID)
		assert.Equal(t, "api", entry.Source)
		assert.Equal(t, lightsql.MethodDelete, entry.Method)
	})

	t.Run("list", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/v1/history?limit=5", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []history.Entry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "DELETE FROM logs", entries[0].Query)
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/v1/history/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/v1/history?limit=zero", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHistory_Unavailable(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	for _, target := range []string{"/v1/history", "/v1/history/abc"} {
		rec := do(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
	}
}

func TestHistory_StoreFailure(t *testing.T) {
	h := newTestServer(t, failingStore{}).Handler()

	for _, target := range []string{"/v1/history", "/v1/history/abc"} {
		rec := do(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code, target)
	}
}

func TestEvents(t *testing.T) {
	srv := newTestServer(t, setupHistory(t))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/events", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	post, err := ts.Client().Post(ts.URL+"/v1/analyze", "application/json",
		strings.NewReader(`{"query": "SELECT * FROM events_table", "save": true}`))
	require.NoError(t, err)
	_ = post.Body.Close()
	require.Equal(t, http.StatusCreated, post.StatusCode)

	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}

	assert.Equal(t, "analysis", event)
	var entry history.Entry
	require.NoError(t, json.Unmarshal([]byte(data), &entry))
	assert.Equal(t, "SELECT * FROM events_table", entry.Query)
	assert.Equal(t, []string{"events_table"}, entry.Report.Tables)
}

func TestServeListener_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/healthz")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_InvalidAddr(t *testing.T) {
	srv := New(Config{Addr: "not-an-address"})

	err := srv.Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
