package ratelimit

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

// MemoryLimiter keeps per-key counters in process. Safe for concurrent use.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]window
	now     func() time.Time
	stopCh  chan struct{}
	done    chan struct{}
	once    sync.Once
}

type window struct {
	count int
	end   time.Time
}

// MemoryOption configures a MemoryLimiter.
type MemoryOption func(*MemoryLimiter)

// WithClock overrides the limiter's time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) { l.now = now }
}

// NewMemoryLimiter creates a limiter and starts its sweeper. Call Close to stop it.
func NewMemoryLimiter(opts ...MemoryOption) *MemoryLimiter {
	l := &MemoryLimiter{
		entries: make(map[string]window),
		now:     time.Now,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.sweepLoop(sweepInterval)
	return l
}

// Allow counts a request against key.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, win time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if win <= 0 {
		win = defaultWindow
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.entries[key]
	if !ok || !now.Before(state.end) {
		state = window{count: 1, end: now.Add(win)}
		l.entries[key] = state
		return Decision{Allowed: true, Count: 1, RetryAfter: win}
	}
	if state.count >= limit {
		return Decision{Allowed: false, Count: state.count, RetryAfter: state.end.Sub(now)}
	}
	state.count++
	l.entries[key] = state
	return Decision{Allowed: true, Count: state.count, RetryAfter: state.end.Sub(now)}
}

func (l *MemoryLimiter) sweepLoop(interval time.Duration) {
	defer close(l.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopCh:
			return
		}
	}
}

// sweep drops windows that have ended.
func (l *MemoryLimiter) sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, state := range l.entries {
		if !now.Before(state.end) {
			delete(l.entries, key)
		}
	}
}

func (l *MemoryLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close stops the sweeper and waits for it to exit.
func (l *MemoryLimiter) Close() error {
	l.once.Do(func() {
		close(l.stopCh)
	})
	<-l.done
	return nil
}
