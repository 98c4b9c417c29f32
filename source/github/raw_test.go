package github

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/reposync/errors"
)

func TestClient_Fetch(t *testing.T) {
	var gotPath string
	fake := &fakeGitHub{
		rawHandler: func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
			fmt.Fprint(w, "hello")
		},
	}
	client, _ := newTestClient(t, fake)

	data, err := client.Fetch(context.Background(), "c0ffee", "docs/read me.md")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "/raw/acme/site/c0ffee/docs/read%20me.md", gotPath)
}

func TestClient_Fetch_DefaultsToBranch(t *testing.T) {
	var gotPath string
	fake := &fakeGitHub{
		rawHandler: func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			fmt.Fprint(w, "x")
		},
	}
	client, _ := newTestClient(t, fake)

	_, err := client.Fetch(context.Background(), "", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "/raw/acme/site/main/a.txt", gotPath)
}

func TestClient_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name        string
		statuses    []int
		maxRetries  int
		wantCode    errors.ErrorCode
		wantCalls   int32
		wantSuccess bool
	}{
		{
			name:      "not found is not retried",
			statuses:  []int{http.StatusNotFound},
			wantCode:  errors.CodeNotFound,
			wantCalls: 1,
		},
		{
			name:      "forbidden is not retried",
			statuses:  []int{http.StatusForbidden},
			wantCode:  errors.CodeForbidden,
			wantCalls: 1,
		},
		{
			name:       "unauthorized is not retried",
			statuses:   []int{http.StatusUnauthorized, http.StatusOK},
			maxRetries: 2,
			wantCode:   errors.CodeUnauthorized,
			wantCalls:  1,
		},
		{
			name:        "server error then success",
			statuses:    []int{http.StatusBadGateway, http.StatusOK},
			maxRetries:  2,
			wantCalls:   2,
			wantSuccess: true,
		},
		{
			name:       "rate limited until retries run out",
			statuses:   []int{http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests},
			maxRetries: 2,
			wantCode:   errors.CodeRateLimit,
			wantCalls:  3,
		},
		{
			name:       "retries disabled",
			statuses:   []int{http.StatusServiceUnavailable, http.StatusOK},
			maxRetries: 0,
			wantCode:   errors.CodeUnavailable,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			fake := &fakeGitHub{
				rawHandler: func(w http.ResponseWriter, r *http.Request) {
					n := int(calls.Add(1)) - 1
					status := tt.statuses[len(tt.statuses)-1]
					if n < len(tt.statuses) {
						status = tt.statuses[n]
					}
					w.WriteHeader(status)
					fmt.Fprint(w, "body")
				},
			}
			client, _ := newTestClient(t, fake, WithMaxRetries(tt.maxRetries))

			data, err := client.Fetch(context.Background(), "c0ffee", "a.txt")

			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantSuccess {
				require.NoError(t, err)
				assert.Equal(t, "body", string(data))
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.Contains(t, err.Error(), "a.txt")
			assert.NotContains(t, err.Error(), testToken)
		})
	}
}

func TestClient_Fetch_Cancelled(t *testing.T) {
	fake := &fakeGitHub{
		rawHandler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	}
	client, _ := newTestClient(t, fake, WithMaxRetries(5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fetch(ctx, "c0ffee", "a.txt")
	require.Error(t, err)
}

func TestClient_RawContentURL(t *testing.T) {
	client, err := New("acme", "site", "main", testToken, WithRawURL("https://raw.example.com"))
	require.NoError(t, err)

	assert.Equal(t,
		"https://raw.example.com/acme/site/feature/x/dir/a%23b.txt",
		client.rawContentURL("feature/x", "dir/a#b.txt"),
	)
}
