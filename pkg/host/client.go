// Package host is the socket bridge to the office-automation host
// process. Connection establishment is a bounded retry loop; once
// connected, all document calls are blocking request/response pairs
// issued sequentially over one connection.
package host

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options configures the bridge connection.
type Options struct {
	Address        string        // host listener, default 127.0.0.1:2002
	ConnectRetries int           // bounded attempts before giving up
	RetryInterval  time.Duration // pause between attempts
	DialTimeout    time.Duration // per-attempt dial timeout
}

func (o Options) withDefaults() Options {
	if o.Address == "" {
		o.Address = "127.0.0.1:2002"
	}
	if o.ConnectRetries <= 0 {
		o.ConnectRetries = 10
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 2 * time.Second
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	return o
}

// 🔌 Session is one live connection to the automation host. The session
// and every document opened through it must be used from a single
// goroutine; the host processes calls strictly in order.
type Session struct {
	conn   net.Conn
	enc    *json.Encoder
	dec    *json.Decoder
	mu     sync.Mutex
	nextID uint64
}

// 🏭 Connect dials the host listener, retrying up to the bounded count.
// Exhausting the retries is fatal to the whole run: there is no silent
// partial-success path.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	logger := zerolog.Ctx(ctx)

	var lastErr error
	for attempt := 1; attempt <= opts.ConnectRetries; attempt++ {
		dialer := net.Dialer{Timeout: opts.DialTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", opts.Address)
		if err == nil {
			logger.Debug().Str("address", opts.Address).Int("attempt", attempt).Msg("connected to automation host")
			return &Session{
				conn: conn,
				enc:  json.NewEncoder(conn),
				dec:  json.NewDecoder(conn),
			}, nil
		}
		lastErr = err
		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", opts.ConnectRetries).
			Str("address", opts.Address).
			Msg("automation host not reachable, retrying")
		if attempt < opts.ConnectRetries {
			if err := waitInterval(ctx, opts.RetryInterval); err != nil {
				return nil, err
			}
		}
	}
	return nil, errors.Errorf("connecting to automation host at %s after %d attempts: %w", opts.Address, opts.ConnectRetries, lastErr)
}

func waitInterval(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// call issues one request and decodes the response into result.
func (s *Session) call(ctx context.Context, method string, params map[string]any, result any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetDeadline(deadline)
	} else {
		_ = s.conn.SetDeadline(time.Time{})
	}

	s.nextID++
	req := request{ID: s.nextID, Method: method, Params: params}
	if err := s.enc.Encode(req); err != nil {
		return errors.Errorf("sending %s to host: %w", method, err)
	}

	var resp response
	if err := s.dec.Decode(&resp); err != nil {
		return errors.Errorf("reading %s response from host: %w", method, err)
	}
	if resp.ID != req.ID {
		return errors.Errorf("host answered request %d with id %d", req.ID, resp.ID)
	}
	if resp.Error != "" {
		return errors.Errorf("host rejected %s: %s", method, resp.Error)
	}
	if result != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return errors.Errorf("decoding %s result: %w", method, err)
		}
	}
	return nil
}

// 🎯 Open loads a document in the host and returns its handle.
func (s *Session) Open(ctx context.Context, path string) (*Doc, error) {
	if err := s.call(ctx, "document.open", map[string]any{"path": path}, nil); err != nil {
		return nil, errors.Errorf("opening document %s: %w", path, err)
	}
	return &Doc{s: s}, nil
}

// Close tears down the connection. The host process itself is owned and
// torn down by the caller.
func (s *Session) Close() error {
	return s.conn.Close()
}
