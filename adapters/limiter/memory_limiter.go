package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/encore/core"
)

const (
	// DefaultWindow is the length of one rate limit window
	DefaultWindow = 15 * time.Minute

	// DefaultMax is the number of admits allowed per window
	DefaultMax = 100
)

// Config holds rate limiter configuration
type Config struct {
	// Window is the fixed window length
	Window time.Duration
	// Max is the number of requests admitted per key per window
	Max int
	// CleanupInterval is how often elapsed windows are dropped
	CleanupInterval time.Duration
}

// DefaultConfig returns 100 requests per 15 minutes
func DefaultConfig() Config {
	return Config{
		Window:          DefaultWindow,
		Max:             DefaultMax,
		CleanupInterval: time.Minute,
	}
}

// MemoryLimiter is a fixed-window counter held in process memory.
// Every request is charged against its window, including rejected ones.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*core.Window
	config  Config
	now     func() time.Time
	done    chan struct{}
	stop    sync.Once
}

// NewMemoryLimiter creates a limiter and starts its cleanup goroutine
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return newMemoryLimiter(cfg, time.Now)
}

func newMemoryLimiter(cfg Config, now func() time.Time) *MemoryLimiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Max <= 0 {
		cfg.Max = DefaultMax
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}

	l := &MemoryLimiter{
		windows: make(map[string]*core.Window),
		config:  cfg,
		now:     now,
		done:    make(chan struct{}),
	}

	go l.cleanup()

	return l
}

// Admit charges one request to key and reports whether it is within the limit
func (l *MemoryLimiter) Admit(ctx context.Context, key string) (core.Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[key]
	if !exists || !now.Before(w.Start.Add(l.config.Window)) {
		w = &core.Window{Start: now}
		l.windows[key] = w
	}
	w.Count++

	return decide(w.Count, l.config.Max, w.Start.Add(l.config.Window)), nil
}

// Config returns the limiter configuration
func (l *MemoryLimiter) Config() Config {
	return l.config
}

// Len returns the number of tracked keys
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Stop stops the cleanup goroutine
func (l *MemoryLimiter) Stop() {
	l.stop.Do(func() { close(l.done) })
}

func (l *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.dropElapsed()
		}
	}
}

// dropElapsed removes windows that have ended; the next admit for such a key
// would start a fresh window anyway.
func (l *MemoryLimiter) dropElapsed() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, w := range l.windows {
		if !now.Before(w.Start.Add(l.config.Window)) {
			delete(l.windows, key)
		}
	}
}

func decide(count, limit int, resetAt time.Time) core.Decision {
	return core.Decision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetAt:   resetAt,
	}
}
