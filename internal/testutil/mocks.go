package testutil

import (
	"errors"
	"fmt"
	"pickme/internal/providers"
	"sync"
	"time"
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

// MockCache implements providers.CacheProviderInterface. Keys are stored
// as "revision/key".
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(revision uint64, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[fmt.Sprintf("%d/%s", revision, key)]
	return val, ok
}

func (m *MockCache) Set(revision uint64, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[fmt.Sprintf("%d/%s", revision, key)] = value
}

// MockCompressor implements the mirror compressor with injectable behavior.
// Without overrides it passes data through unchanged.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	return val, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	return val, nil
}

var ErrMirrorMiss = errors.New("mock mirror: not found")

// MockMirror implements a byte key/value mirror backed by a map.
type MockMirror struct {
	mu    sync.Mutex
	Data  map[string][]byte
	Sets  int
	GetFn func(key string) ([]byte, error)
	SetFn func(key string, value []byte) error
}

func NewMockMirror() *MockMirror {
	return &MockMirror{Data: make(map[string][]byte)}
}

func (m *MockMirror) Get(key string) ([]byte, error) {
	if m.GetFn != nil {
		return m.GetFn(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	if !ok {
		return nil, ErrMirrorMiss
	}
	return val, nil
}

func (m *MockMirror) Set(key string, value []byte) error {
	m.mu.Lock()
	m.Sets++
	m.mu.Unlock()
	if m.SetFn != nil {
		return m.SetFn(key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
	return nil
}

// MockMetrics implements providers.MetricsProviderInterface and records the
// counters tests usually assert on.
type MockMetrics struct {
	mu             sync.Mutex
	Actions        map[string]int
	Animations     map[string]int
	Frames         int
	MirrorFailures map[string]int
	StudentsTotal  map[string]int
	Reconciles     int
	CacheHits      int
	CacheMisses    int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Actions:        make(map[string]int),
		Animations:     make(map[string]int),
		MirrorFailures: make(map[string]int),
		StudentsTotal:  make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
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
func (m *MockMetrics) IncActionsTotal(kind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Actions == nil {
		m.Actions = make(map[string]int)
	}
	m.Actions[kind+":"+outcome]++
}
func (m *MockMetrics) ObserveActionDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncAnimationsTotal(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Animations == nil {
		m.Animations = make(map[string]int)
	}
	m.Animations[mode]++
}
func (m *MockMetrics) IncAnimationFrames(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames += count
}
func (m *MockMetrics) ObserveReconcileDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reconciles++
}
func (m *MockMetrics) SetStudentsTotal(classID string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StudentsTotal == nil {
		m.StudentsTotal = make(map[string]int)
	}
	m.StudentsTotal[classID] = count
}
func (m *MockMetrics) IncMirrorFailures(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MirrorFailures == nil {
		m.MirrorFailures = make(map[string]int)
	}
	m.MirrorFailures[op]++
}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {}

// ActionCount returns how often kind finished with outcome.
func (m *MockMetrics) ActionCount(kind, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Actions[kind+":"+outcome]
}

// MirrorFailureCount returns the recorded failures for op.
func (m *MockMetrics) MirrorFailureCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.MirrorFailures[op]
}
