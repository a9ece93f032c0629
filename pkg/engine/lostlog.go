package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📝 LostEntry is one comment that could not be attached to any change
// entry, recorded for manual follow-up.
type LostEntry struct {
	Time    time.Time `json:"time"`
	Comment string    `json:"comment"`
	Author  string    `json:"author"`
	Find    string    `json:"find"`
	Replace string    `json:"replace"`
}

// 🗃️ LostLog is the append-only side file for lost comments: the
// graceful-degradation floor of the attachment cascade.
type LostLog struct {
	path string
	mu   sync.Mutex
}

// NewLostLog creates a lost-comments log writing to path.
func NewLostLog(path string) *LostLog {
	return &LostLog{path: path}
}

// Append records one lost comment as a JSON line.
func (l *LostLog) Append(ctx context.Context, entry LostEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Errorf("opening lost-comments log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Errorf("encoding lost comment: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return errors.Errorf("appending lost comment: %w", err)
	}

	zerolog.Ctx(ctx).Warn().
		Str("comment", entry.Comment).
		Str("find", entry.Find).
		Msg("comment lost, recorded for manual follow-up")
	return nil
}

// Entries reads back all recorded entries. Unparseable lines are skipped.
func (l *LostLog) Entries() ([]LostEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("opening lost-comments log: %w", err)
	}
	defer f.Close()

	var out []LostEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e LostEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Errorf("reading lost-comments log: %w", err)
	}
	return out, nil
}
