package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func TestHub_PublishAndSubscribe(t *testing.T) {
	h := NewHub()
	h.Publish("before subscribe")

	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish("after subscribe")

	select {
	case line := <-ch:
		assert.Equal(t, "after subscribe", line)
	case <-time.After(time.Second):
		t.Fatal("no line received")
	}

	assert.Equal(t, []string{"before subscribe", "after subscribe"}, h.Snapshot())
}

func TestHub_RingIsBounded(t *testing.T) {
	h := NewHub()
	for i := 0; i < ringSize+50; i++ {
		h.Publish(fmt.Sprintf("line %d", i))
	}
	snap := h.Snapshot()
	require.Len(t, snap, ringSize)
	assert.Equal(t, "line 50", snap[0])
}

func TestHub_SlowSubscriberIsSkippedNotBlocked(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// overflow the subscriber buffer without anyone draining it
		for i := 0; i < 200; i++ {
			h.Publish("x")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestHub_CancelRemovesSubscriber(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe()
	assert.Equal(t, 1, h.Subscribers())
	cancel()
	assert.Equal(t, 0, h.Subscribers())
}

func TestServer_Status(t *testing.T) {
	h := NewHub()
	h.Publish("one line")
	srv := httptest.NewServer(NewServer(h, filepath.Join(t.TempDir(), "missing.md")).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := make([]byte, 1024)
	n, _ := resp.Body.Read(body)
	s := string(body[:n])
	assert.Contains(t, s, `"log_lines":1`)
	assert.Contains(t, s, `"report_ready":false`)
}

func TestServer_ReportRendersMarkdown(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.md")
	require.NoError(t, os.WriteFile(reportPath, []byte("# Policy Edit Run\n\n- done\n"), 0o644))

	srv := httptest.NewServer(NewServer(NewHub(), reportPath).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := make([]byte, 4096)
	n, _ := resp.Body.Read(body)
	assert.Contains(t, string(body[:n]), "<h1>Policy Edit Run</h1>")
}

func TestServer_ReportMissing(t *testing.T) {
	srv := httptest.NewServer(NewServer(NewHub(), filepath.Join(t.TempDir(), "none.md")).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_LogsWebsocketReplaysBacklog(t *testing.T) {
	h := NewHub()
	h.Publish("first")
	h.Publish("second")

	srv := httptest.NewServer(NewServer(h, "report.md").Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/logs"
	ws, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	defer ws.Close()

	var got []string
	for i := 0; i < 2; i++ {
		var line string
		require.NoError(t, websocket.Message.Receive(ws, &line))
		got = append(got, line)
	}
	assert.Equal(t, []string{"first", "second"}, got)

	h.Publish("live")
	var line string
	require.NoError(t, websocket.Message.Receive(ws, &line))
	assert.Equal(t, "live", line)
}

func TestWatchEditSources(t *testing.T) {
	dir := t.TempDir()
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	errCh := make(chan error, 1)
	go func() { errCh <- watchEditSources(ctx, dir, h) }()

	// give the watcher a moment to register
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "changes.csv"), []byte("find,replace\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	select {
	case line := <-ch:
		assert.Equal(t, "edit source updated: changes.csv", line)
	case <-time.After(2 * time.Second):
		t.Fatal("no watch event received")
	}

	// the .txt write must not produce a second announcement
	select {
	case line := <-ch:
		assert.NotContains(t, line, "notes.txt")
	case <-time.After(100 * time.Millisecond):
	}

	stop()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
