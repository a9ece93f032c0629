package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"
)

const indexPage = `<!doctype html>
<html>
<head><title>policyedit</title></head>
<body>
<h1>policyedit</h1>
<ul>
<li><a href="/report">run report</a></li>
<li><a href="/status">status</a></li>
</ul>
<pre id="log"></pre>
<script>
const log = document.getElementById("log");
const ws = new WebSocket("ws://" + location.host + "/logs");
ws.onmessage = (e) => { log.textContent += e.data + "\n"; };
</script>
</body>
</html>
`

// 🖥️ Server exposes the dashboard endpoints.
type Server struct {
	hub        *Hub
	reportPath string
	md         goldmark.Markdown
	started    time.Time
}

// 🏭 NewServer creates a dashboard server over the hub. reportPath names
// the markdown run report, which may not exist yet.
func NewServer(hub *Hub, reportPath string) *Server {
	return &Server{
		hub:        hub,
		reportPath: reportPath,
		md:         goldmark.New(),
		started:    time.Now(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveIndex)
	mux.Handle("/logs", websocket.Handler(s.serveLogs))
	mux.HandleFunc("/report", s.serveReport)
	mux.HandleFunc("/status", s.serveStatus)
	return mux
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexPage))
}

// serveLogs replays the backlog and then streams live lines until the
// client goes away.
func (s *Server) serveLogs(ws *websocket.Conn) {
	defer ws.Close()

	for _, line := range s.hub.Snapshot() {
		if err := websocket.Message.Send(ws, line); err != nil {
			return
		}
	}

	ch, cancel := s.hub.Subscribe()
	defer cancel()
	for line := range ch {
		if err := websocket.Message.Send(ws, line); err != nil {
			return
		}
	}
}

func (s *Server) serveReport(w http.ResponseWriter, r *http.Request) {
	source, err := os.ReadFile(s.reportPath)
	if err != nil {
		http.Error(w, "no run report yet", http.StatusNotFound)
		return
	}
	var buf bytes.Buffer
	if err := s.md.Convert(source, &buf); err != nil {
		http.Error(w, "rendering report: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	_, reportErr := os.Stat(s.reportPath)
	status := map[string]any{
		"uptime":       time.Since(s.started).Round(time.Second).String(),
		"log_lines":    len(s.hub.Snapshot()),
		"subscribers":  s.hub.Subscribers(),
		"report_ready": reportErr == nil,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// 🚀 Serve runs the HTTP server and the edit-source watcher until the
// context is canceled.
func (s *Server) Serve(ctx context.Context, addr, watchDir string) error {
	logger := zerolog.Ctx(ctx)

	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Errorf("dashboard server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if watchDir != "" {
		g.Go(func() error {
			return watchEditSources(gctx, watchDir, s.hub)
		})
	}
	return g.Wait()
}
