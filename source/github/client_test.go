package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/reposync/errors"
)

const testToken = "test-token-value"

type logEntry struct {
	level string
	msg   string
}

type testLogHandler struct {
	mu   sync.Mutex
	logs *[]logEntry
}

func (h *testLogHandler) Enabled(context.Context, slog.Level) bool { return true }

//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.logs = append(*h.logs, logEntry{level: r.Level.String(), msg: r.Message})
	return nil
}

func (h *testLogHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *testLogHandler) WithGroup(string) slog.Handler      { return h }

// fakeGitHub serves the branch, tree and raw endpoints for acme/site.
type fakeGitHub struct {
	branchStatus int
	treeStatus   int
	truncated    bool
	entries      string

	branchCalls atomic.Int32
	treeCalls   atomic.Int32
	rawHandler  http.HandlerFunc
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/repos/acme/site/branches/main", func(w http.ResponseWriter, r *http.Request) {
		f.branchCalls.Add(1)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		if f.branchStatus != 0 && f.branchStatus != http.StatusOK {
			w.WriteHeader(f.branchStatus)
			fmt.Fprint(w, `{"message":"Branch not found"}`)
			return
		}
		fmt.Fprint(w, `{"name":"main","commit":{"sha":"c0ffee","commit":{"tree":{"sha":"t1"}}}}`)
	})

	mux.HandleFunc("/api/repos/acme/site/git/trees/t1", func(w http.ResponseWriter, r *http.Request) {
		f.treeCalls.Add(1)
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		if f.treeStatus != 0 && f.treeStatus != http.StatusOK {
			w.WriteHeader(f.treeStatus)
			fmt.Fprint(w, `{"message":"Server Error"}`)
			return
		}
		fmt.Fprintf(w, `{"sha":"t1","truncated":%t,"tree":[%s]}`, f.truncated, f.entries)
	})

	mux.HandleFunc("/raw/", func(w http.ResponseWriter, r *http.Request) {
		if f.rawHandler != nil {
			f.rawHandler(w, r)
			return
		}
		http.NotFound(w, r)
	})

	return mux
}

func newTestClient(t *testing.T, fake *fakeGitHub, opts ...Option) (*Client, *[]logEntry) {
	t.Helper()
	srv := httptest.NewTLSServer(fake.handler(t))
	t.Cleanup(srv.Close)

	var logs []logEntry
	base := []Option{
		WithAPIURL(srv.URL + "/api"),
		WithRawURL(srv.URL + "/raw/"),
		WithHTTPClient(srv.Client()),
		WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
		WithLogger(slog.New(&testLogHandler{logs: &logs})),
	}
	client, err := New("acme", "site", "main", testToken, append(base, opts...)...)
	require.NoError(t, err)
	return client, &logs
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		owner    string
		token    string
		opts     []Option
		wantCode errors.ErrorCode
	}{
		{name: "valid", owner: "acme", token: testToken},
		{name: "missing token", owner: "acme", token: "", wantCode: errors.CodeUnauthorized},
		{name: "missing owner", owner: "", token: testToken, wantCode: errors.CodeInvalidInput},
		{name: "relative api url", owner: "acme", token: testToken, opts: []Option{WithAPIURL("api.local")}, wantCode: errors.CodeInvalidConfig},
		{name: "plain http api url", owner: "acme", token: testToken, opts: []Option{WithAPIURL("http://ghe.internal/api/v3")}, wantCode: errors.CodeInvalidConfig},
		{name: "plain http raw url", owner: "acme", token: testToken, opts: []Option{WithRawURL("http://raw.ghe.internal")}, wantCode: errors.CodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.owner, "site", "main", tt.token, tt.opts...)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.NotNil(t, client)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.NotContains(t, err.Error(), testToken)
		})
	}
}

func TestClient_List(t *testing.T) {
	fake := &fakeGitHub{
		entries: `{"path":"README.md","type":"blob","sha":"b1"},` +
			`{"path":"docs","type":"tree","sha":"d1"},` +
			`{"path":"docs/guide.md","type":"blob","sha":"b2"},` +
			`{"path":"vendor/lib","type":"commit","sha":"s1"}`,
	}
	client, logs := newTestClient(t, fake)

	snap, err := client.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "c0ffee", snap.Revision)
	assert.Equal(t, "t1", snap.Tree)
	assert.Equal(t, []string{"README.md", "docs/guide.md"}, snap.Files.Sorted())
	for _, l := range *logs {
		assert.NotEqual(t, "WARN", l.level)
	}
}

func TestClient_List_EmptyTree(t *testing.T) {
	client, _ := newTestClient(t, &fakeGitHub{})

	snap, err := client.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Files.Len())
}

func TestClient_List_TruncatedWarns(t *testing.T) {
	fake := &fakeGitHub{
		truncated: true,
		entries:   `{"path":"a.txt","type":"blob","sha":"b1"}`,
	}
	client, logs := newTestClient(t, fake)

	snap, err := client.List(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Files.Has("a.txt"))

	var warned bool
	for _, l := range *logs {
		if l.level == "WARN" {
			warned = true
		}
	}
	assert.True(t, warned, "expected a truncation warning")
}

func TestClient_List_Failures(t *testing.T) {
	tests := []struct {
		name          string
		fake          *fakeGitHub
		wantCode      errors.ErrorCode
		wantTreeCalls int32
		wantContains  string
	}{
		{
			name:          "branch not found",
			fake:          &fakeGitHub{branchStatus: http.StatusNotFound},
			wantCode:      errors.CodeNotFound,
			wantTreeCalls: 0,
			wantContains:  "Branch not found",
		},
		{
			name:          "bad credentials",
			fake:          &fakeGitHub{branchStatus: http.StatusUnauthorized},
			wantCode:      errors.CodeUnauthorized,
			wantTreeCalls: 0,
		},
		{
			name:          "tree listing fails",
			fake:          &fakeGitHub{treeStatus: http.StatusInternalServerError},
			wantCode:      errors.CodeUnavailable,
			wantTreeCalls: 1,
			wantContains:  "list tree",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.fake)

			snap, err := client.List(context.Background())
			require.Error(t, err)
			assert.Nil(t, snap)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.Equal(t, errors.ExitFatal, errors.ExitCode(err))
			assert.Equal(t, int32(1), tt.fake.branchCalls.Load(), "branch lookup is never retried")
			assert.Equal(t, tt.wantTreeCalls, tt.fake.treeCalls.Load())
			assert.NotContains(t, err.Error(), testToken)
			if tt.wantContains != "" {
				assert.Contains(t, err.Error(), tt.wantContains)
			}
		})
	}
}
