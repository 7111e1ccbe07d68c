package ratelimit

import (
	"context"
	"sync"
	"time"
)

const memoryCleanupInterval = time.Minute

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryCounter - счётчики фиксированных окон в памяти процесса
type MemoryCounter struct {
	mu          sync.Mutex
	windows     map[string]*window
	now         func() time.Time
	lastCleanup time.Time
}

// NewMemoryCounter создает MemoryCounter; now задаёт часы (nil - time.Now)
func NewMemoryCounter(now func() time.Time) *MemoryCounter {
	if now == nil {
		now = time.Now
	}
	return &MemoryCounter{windows: make(map[string]*window), now: now}
}

func (m *MemoryCounter) Incr(_ context.Context, key string, win time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastCleanup) >= memoryCleanupInterval {
		m.cleanup(now)
		m.lastCleanup = now
	}

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(win)}
		m.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt.Sub(now), nil
}

func (m *MemoryCounter) cleanup(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}

// Len возвращает число активных окон
func (m *MemoryCounter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}
