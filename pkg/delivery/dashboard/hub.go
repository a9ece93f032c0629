// Package dashboard serves a local run dashboard: live console lines
// over a websocket, the rendered run report, and a status endpoint. It
// is wired to the console logger's mirror hook, so everything the
// operator sees in the terminal also reaches the browser.
package dashboard

import "sync"

// lines of backlog replayed to new subscribers
const ringSize = 500

// 📡 Hub fans console lines out to websocket subscribers, keeping a
// bounded backlog for late joiners.
type Hub struct {
	mu   sync.Mutex
	ring []string
	subs map[chan string]struct{}
}

// 🏭 NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan string]struct{})}
}

// Publish appends a line to the backlog and fans it out. Slow
// subscribers are skipped, never blocked on.
func (h *Hub) Publish(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ring = append(h.ring, line)
	if len(h.ring) > ringSize {
		h.ring = h.ring[len(h.ring)-ringSize:]
	}
	for ch := range h.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// Subscribe registers a listener and returns its channel plus a cancel
// function. The backlog is not replayed on the channel; use Snapshot.
func (h *Hub) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// Snapshot returns a copy of the backlog.
func (h *Hub) Snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.ring...)
}

// Subscribers reports the current listener count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
