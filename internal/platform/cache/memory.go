package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value     string
	expiresAt time.Time
}

type memWindow struct {
	start time.Time
	n     int
}

// Memory implements Cache and Limiter inside one process.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memEntry
	counts  map[string]memWindow
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: map[string]memEntry{},
		counts:  map[string]memWindow{},
		now:     time.Now,
	}
}

// WithClock swaps the time source; tests use it to step across windows.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 || window <= 0 {
		return Decision{Allowed: true}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	start := windowStart(now, window)
	w := m.counts[key]
	if !w.start.Equal(start) {
		w = memWindow{start: start}
	}
	w.n++
	m.counts[key] = w
	return decide(w.n, limit, start.Add(window).Sub(now)), nil
}
