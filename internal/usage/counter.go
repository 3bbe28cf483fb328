package usage

import (
	"context"
	"sync"
	"time"
)

// CounterResult is the state of a fixed-window counter after one increment.
type CounterResult struct {
	Count   int
	Allowed bool
	ResetAt time.Time
}

// Counter is a shared fixed-window counter. Implementations must make a single
// increment atomic. now is the instant the caller derived key's bucket from, so
// ResetAt closes that same bucket.
type Counter interface {
	Increment(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (CounterResult, error)
}

// MemoryCounter is an in-process fixed-window Counter for single-instance deployments.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	ops     int
}

type fixedWindow struct {
	count   int
	resetAt time.Time
}

// NewMemoryCounter constructs an empty MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]*fixedWindow)}
}

// Increment adds one hit to key's current window.
func (m *MemoryCounter) Increment(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (CounterResult, error) {
	if err := ctx.Err(); err != nil {
		return CounterResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ops++
	if m.ops%1024 == 0 {
		m.sweep(now)
	}

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &fixedWindow{resetAt: windowEnd(now, window)}
		m.windows[key] = w
	}
	w.count++
	return CounterResult{
		Count:   w.count,
		Allowed: w.count <= limit,
		ResetAt: w.resetAt,
	}, nil
}

func (m *MemoryCounter) sweep(now time.Time) {
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
		}
	}
}

// windowBucket returns the aligned bucket index containing now.
func windowBucket(now time.Time, window time.Duration) int64 {
	secs := int64(window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return now.Unix() / secs
}

// windowEnd returns the instant the aligned window containing now closes.
func windowEnd(now time.Time, window time.Duration) time.Time {
	secs := int64(window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return time.Unix((windowBucket(now, window)+1)*secs, 0).UTC()
}

var _ Counter = (*MemoryCounter)(nil)
