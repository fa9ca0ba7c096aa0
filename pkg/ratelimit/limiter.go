// Package ratelimit limits how often a client may call the API.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter decides whether a request for key may proceed
type Limiter interface {
	Allow(key string) bool
}

// SlidingWindowLimiter allows at most limit requests per key in any window
// of the configured size.
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	limit      int
	windowSize time.Duration
	now        func() time.Time
	lastPrune  time.Time
}

type window struct {
	requests []time.Time
}

// Option configures a SlidingWindowLimiter
type Option func(*SlidingWindowLimiter)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(l *SlidingWindowLimiter) { l.now = now }
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration, opts ...Option) *SlidingWindowLimiter {
	l := &SlidingWindowLimiter{
		windows:    make(map[string]*window),
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastPrune = l.now()
	return l
}

// Allow records a request for key and reports whether it is within the limit
func (l *SlidingWindowLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.windowSize)
	l.prune(now, windowStart)

	w, exists := l.windows[key]
	if !exists {
		w = &window{}
		l.windows[key] = w
	}

	// Drop requests that left the window
	valid := w.requests[:0]
	for _, t := range w.requests {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}
	w.requests = valid

	if len(w.requests) >= l.limit {
		return false
	}
	w.requests = append(w.requests, now)
	return true
}

// Reset forgets the requests of key
func (l *SlidingWindowLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Len returns the number of keys tracked
func (l *SlidingWindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// prune drops idle keys once per window
func (l *SlidingWindowLimiter) prune(now, windowStart time.Time) {
	if now.Sub(l.lastPrune) < l.windowSize {
		return
	}
	l.lastPrune = now
	for key, w := range l.windows {
		if n := len(w.requests); n == 0 || !w.requests[n-1].After(windowStart) {
			delete(l.windows, key)
		}
	}
}
