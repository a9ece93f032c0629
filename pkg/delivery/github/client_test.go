package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Options{
		Token:       "test-token",
		MinInterval: time.Millisecond,
		BaseURL:     srv.URL,
	})
	require.NoError(t, err)
	return c
}

func TestCommitFile_CreateNew(t *testing.T) {
	var putBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/o/r/contents/docs/policy.pdf", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putBody))
			fmt.Fprint(w, `{"content": {"sha": "new"}}`)
		}
	})

	c := newTestClient(t, mux)
	err := c.CommitFile(context.Background(), "o", "r", "main", "docs/policy.pdf", []byte("pdf-bytes"), "Deliver edited policy document")
	require.NoError(t, err)

	assert.Equal(t, "Deliver edited policy document", putBody["message"])
	assert.Equal(t, "main", putBody["branch"])
	assert.NotEmpty(t, putBody["content"])
	assert.Nil(t, putBody["sha"], "no sha when creating a new file")
}

func TestCommitFile_UpdatesExistingWithSHA(t *testing.T) {
	var putBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/o/r/contents/policy.pdf", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `{"type": "file", "sha": "abc123", "path": "policy.pdf"}`)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putBody))
			fmt.Fprint(w, `{"content": {"sha": "def456"}}`)
		}
	})

	c := newTestClient(t, mux)
	err := c.CommitFile(context.Background(), "o", "r", "main", "policy.pdf", []byte("v2"), "update")
	require.NoError(t, err)

	assert.Equal(t, "abc123", putBody["sha"])
}

func TestDispatchWorkflow(t *testing.T) {
	var dispatched atomic.Bool
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/o/r/actions/workflows/convert.yml/dispatches", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		dispatched.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, mux)
	err := c.DispatchWorkflow(context.Background(), "o", "r", "convert.yml", "main", map[string]any{"document": "policy.pdf"})
	require.NoError(t, err)

	assert.True(t, dispatched.Load())
	assert.Equal(t, "main", body["ref"])
	inputs, ok := body["inputs"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "policy.pdf", inputs["document"])
}

func TestWaitForRun_PollsUntilCompleted(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/o/r/actions/workflows/convert.yml/runs", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			fmt.Fprint(w, `{"total_count": 1, "workflow_runs": [{"id": 9, "status": "in_progress"}]}`)
			return
		}
		fmt.Fprint(w, `{"total_count": 1, "workflow_runs": [{"id": 9, "status": "completed", "conclusion": "success"}]}`)
	})

	c := newTestClient(t, mux)
	run, err := c.WaitForRun(context.Background(), "o", "r", "convert.yml", time.Now(), time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, int64(9), run.GetID())
	assert.Equal(t, "success", run.GetConclusion())
	assert.Equal(t, int32(3), polls.Load())
}

func TestWaitForRun_ContextCancel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/o/r/actions/workflows/convert.yml/runs", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_count": 0, "workflow_runs": []}`)
	})

	c := newTestClient(t, mux)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.WaitForRun(ctx, "o", "r", "convert.yml", time.Now(), 10*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waiting for workflow run")
}

func TestArtifactURLs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/o/r/actions/runs/9/artifacts", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_count": 2, "artifacts": [
			{"name": "policy-pdf", "archive_download_url": "https://example.test/a1"},
			{"name": "run-report", "archive_download_url": "https://example.test/a2"}
		]}`)
	})

	c := newTestClient(t, mux)
	urls, err := c.ArtifactURLs(context.Background(), "o", "r", 9)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"policy-pdf": "https://example.test/a1",
		"run-report": "https://example.test/a2",
	}, urls)
}

func TestThrottle_SpacesCalls(t *testing.T) {
	c := &Client{minInterval: 40 * time.Millisecond}
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, c.throttle(ctx))
	require.NoError(t, c.throttle(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}
