// pattern: Imperative Shell

package logging

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NopLogger returns a logger that discards all output.
// Use in tests or when logging is not configured.
func NopLogger() *ScopedLogger {
	return &ScopedLogger{}
}

// TestLogManager provides a LoggerProvider suitable for tests.
// Entries are kept in memory at debug level for later inspection.
type TestLogManager struct {
	observed *observer.ObservedLogs
	baseZap  *zap.Logger
	loggers  map[string]*ScopedLogger
	mu       sync.RWMutex
}

// NewTestLogManager creates a LoggerProvider for tests that records every entry.
func NewTestLogManager() *TestLogManager {
	core, observed := observer.New(zapcore.DebugLevel)
	return &TestLogManager{
		observed: observed,
		baseZap:  zap.New(core),
		loggers:  make(map[string]*ScopedLogger),
	}
}

// For returns a scoped logger for the given scope name.
// Named For() to match the production Manager API.
func (m *TestLogManager) For(scope string) *ScopedLogger {
	m.mu.RLock()
	if logger, ok := m.loggers[scope]; ok {
		m.mu.RUnlock()
		return logger
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if logger, ok := m.loggers[scope]; ok {
		return logger
	}

	logger := newScopedLogger(m.baseZap.Named(scope), zapcore.DebugLevel, scope)
	m.loggers[scope] = logger
	return logger
}

// Entries returns all recorded entries in order.
func (m *TestLogManager) Entries() []observer.LoggedEntry {
	return m.observed.All()
}

// Messages returns the recorded messages whose logger name starts with scope.
// An empty scope matches every entry.
func (m *TestLogManager) Messages(scope string) []string {
	var msgs []string
	for _, e := range m.observed.All() {
		if scope == "" || strings.HasPrefix(e.LoggerName, scope) {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

// Contains reports whether any recorded message contains substr.
func (m *TestLogManager) Contains(substr string) bool {
	return m.observed.FilterMessageSnippet(substr).Len() > 0
}
