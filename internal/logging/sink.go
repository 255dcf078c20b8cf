// pattern: Imperative Shell

package logging

import (
	"cmp"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var errSinkClosed = errors.New("log sink closed")

// entrySink is a zapcore.WriteSyncer that decodes JSON records into a
// bounded queue of LogEntry values. It keeps the newest entries: once the
// queue is full each write evicts the oldest one.
type entrySink struct {
	mu      sync.Mutex
	entries chan LogEntry
	closed  bool
}

func newEntrySink(capacity int) *entrySink {
	return &entrySink{entries: make(chan LogEntry, max(capacity, 1))}
}

// Write accepts one encoded record. Records that are not JSON are dropped.
func (s *entrySink) Write(p []byte) (int, error) {
	entry, err := decodeEntry(p)
	if err != nil {
		return len(p), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errSinkClosed
	}

	for {
		select {
		case s.entries <- entry:
			return len(p), nil
		default:
		}
		select {
		case <-s.entries:
		default:
		}
	}
}

func (s *entrySink) Sync() error { return nil }

// Close ends the stream. Buffered entries stay readable.
func (s *entrySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.entries)
	}
	return nil
}

// reservedKeys are zap's own record keys; everything else is a field.
var reservedKeys = []string{"msg", "level", "logger", "ts", "caller", "stacktrace"}

func decodeEntry(data []byte) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogEntry{}, err
	}

	str := func(key string) string {
		s, _ := raw[key].(string)
		return s
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     ParseLevel(str("level")),
		Scope:     cmp.Or(str("logger"), "root"),
		Message:   str("msg"),
	}
	if ts, ok := raw["ts"].(float64); ok {
		entry.Timestamp = time.UnixMicro(int64(ts * 1e6))
	}

	for _, key := range reservedKeys {
		delete(raw, key)
	}
	entry.Fields = raw
	return entry, nil
}
