// Package cache holds in-process caches and the janitor that expires them.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically expires entries of the registered caches.
type Manager struct {
	mu      sync.Mutex
	caches  map[string]Cleaner
	stop    context.CancelFunc
	stopped chan struct{}
}

func NewManager() *Manager {
	return &Manager{caches: make(map[string]Cleaner)}
}

// Register adds a named cache. Registering a name again replaces it.
func (m *Manager) Register(name string, c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// Sweep expires every registered cache once and returns the removed count.
func (m *Manager) Sweep(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for name, c := range m.caches {
		n := c.CleanExpired()
		if n > 0 {
			slog.DebugContext(ctx, "Cache entries expired", "cache", name, "count", n)
		}
		total += n
	}
	return total
}

// Start runs Sweep every interval until Stop or ctx is done.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	m.stop = cancel
	m.stopped = make(chan struct{})

	go func() {
		defer close(m.stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sweep(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the cleanup loop and waits for it to exit.
func (m *Manager) Stop() {
	if m.stop == nil {
		return
	}
	m.stop()
	<-m.stopped
}
