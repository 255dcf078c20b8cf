// pattern: Imperative Shell

package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NopLogger returns a logger that discards all output.
func NopLogger() *ScopedLogger {
	return &ScopedLogger{}
}

// TestLogManager writes every entry at debug level and above to a channel so
// tests can assert on what was logged.
type TestLogManager struct {
	sink    *entrySink
	baseZap *zap.Logger
	loggers map[string]*ScopedLogger
	mu      sync.Mutex
}

// NewTestLogManager creates a LoggerProvider that keeps the newest
// bufferSize entries in memory.
func NewTestLogManager(bufferSize int) *TestLogManager {
	sink := newEntrySink(bufferSize)

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(jsonEncoderConfig()),
		sink,
		zapcore.DebugLevel,
	)

	return &TestLogManager{
		sink:    sink,
		baseZap: zap.New(core),
		loggers: make(map[string]*ScopedLogger),
	}
}

// For returns a scoped logger for the given scope name.
func (m *TestLogManager) For(scope string) *ScopedLogger {
	m.mu.Lock()
	defer m.mu.Unlock()

	if logger, ok := m.loggers[scope]; ok {
		return logger
	}
	logger := newScopedLogger(m.baseZap, scope, zapcore.DebugLevel)
	m.loggers[scope] = logger
	return logger
}

// Channel returns the channel for receiving log entries.
func (m *TestLogManager) Channel() <-chan LogEntry {
	return m.sink.entries
}

// Drain returns every entry currently buffered without blocking.
func (m *TestLogManager) Drain() []LogEntry {
	var entries []LogEntry
	for {
		select {
		case e, ok := <-m.sink.entries:
			if !ok {
				return entries
			}
			entries = append(entries, e)
		default:
			return entries
		}
	}
}

// Close closes the test log manager.
func (m *TestLogManager) Close() error {
	return m.sink.Close()
}
