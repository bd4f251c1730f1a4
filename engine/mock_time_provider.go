package engine

import (
	"sync"
	"time"

	"github.com/lixenwraith/skyfight/parameter"
)

// MockTimeProvider is a manually advanced clock for deterministic runs and tests
type MockTimeProvider struct {
	mu  sync.RWMutex
	now time.Time
}

func NewMockTimeProvider(start time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: start}
}

func (m *MockTimeProvider) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

func (m *MockTimeProvider) SetTime(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// AdvanceTicks moves the clock forward by n fixed steps and returns the elapsed duration
func (m *MockTimeProvider) AdvanceTicks(n int) time.Duration {
	d := time.Duration(n) * parameter.FixedStep
	m.Advance(d)
	return d
}
