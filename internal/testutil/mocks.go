package testutil

import (
	"context"
	"sync"
	"time"

	"fermmon/internal/analysis"
	"fermmon/internal/models"
	"fermmon/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Level == level {
			n++
		}
	}
	return n
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closed       bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// identity
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {
	m.Closed = true
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu                  sync.Mutex
	Requests            int
	CacheHits           int
	CacheMisses         int
	PersistenceObserved int
	ReadingsIngested    int
	Evaluations         map[string]int
	AlertsDispatched    map[string]int
	AlertsSuppressed    map[string]int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistenceObserved++
}
func (m *MockMetrics) IncReadingsIngested() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadingsIngested++
}
func (m *MockMetrics) IncEvaluations(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Evaluations == nil {
		m.Evaluations = map[string]int{}
	}
	m.Evaluations[status]++
}
func (m *MockMetrics) IncAlertsDispatched(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AlertsDispatched == nil {
		m.AlertsDispatched = map[string]int{}
	}
	m.AlertsDispatched[kind]++
}
func (m *MockMetrics) IncAlertsSuppressed(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AlertsSuppressed == nil {
		m.AlertsSuppressed = map[string]int{}
	}
	m.AlertsSuppressed[kind]++
}

func (m *MockMetrics) Dispatched(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AlertsDispatched[kind]
}

func (m *MockMetrics) Suppressed(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AlertsSuppressed[kind]
}

// MockPoller implements interfaces.PollerInterface.
type MockPoller struct {
	mu    sync.Mutex
	On    bool
	Err   error
	Calls int
}

func (m *MockPoller) Enabled() bool { return m.On }

func (m *MockPoller) Poll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.Err
}

func (m *MockPoller) PollCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockDispatcher records every evaluation result it receives.
type MockDispatcher struct {
	mu    sync.Mutex
	Calls []DispatchCall
	Err   error
	done  chan struct{}
}

type DispatchCall struct {
	Fermentation models.Fermentation
	ReadingID    int64
	Result       analysis.Result
}

func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{done: make(chan struct{}, 64)}
}

func (m *MockDispatcher) Dispatch(_ context.Context, f *models.Fermentation, readingID int64, res analysis.Result) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, DispatchCall{Fermentation: *f, ReadingID: readingID, Result: res})
	err := m.Err
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return err
}

// Wait blocks until Dispatch has been called or the timeout elapses.
func (m *MockDispatcher) Wait(timeout time.Duration) bool {
	select {
	case <-m.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (m *MockDispatcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
