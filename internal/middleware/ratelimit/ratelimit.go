// Package ratelimit throttles requests per client with fixed windows.
package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time

	rejected atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	start    time.Time
	requests int
}

type Config struct {
	// Requests allowed per client within Period.
	Requests        int
	Period          time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Requests:        10,
		Period:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewLimiter starts a limiter and its cleanup loop; call Stop to end it.
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.Requests <= 0 {
		config.Requests = def.Requests
	}
	if config.Period <= 0 {
		config.Period = def.Period
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}

	l := &Limiter{
		clients: make(map[string]*window),
		limit:   config.Requests,
		period:  config.Period,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop(config.CleanupInterval)
	return l
}

// Allow counts a request from client and reports whether it is within the
// limit of the current window.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[client]
	if !ok || now.Sub(w.start) >= l.period {
		l.clients[client] = &window{start: now, requests: 1}
		return true
	}
	w.requests++
	if w.requests > l.limit {
		l.rejected.Add(1)
		return false
	}
	return true
}

// RetryAfter returns how long client has to wait for a new window.
func (l *Limiter) RetryAfter(client string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.clients[client]
	if !ok {
		return 0
	}
	return max(w.start.Add(l.period).Sub(l.now()), 0)
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Rejected is the number of requests refused since start.
func (l *Limiter) Rejected() int64 {
	return l.rejected.Load()
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

// cleanup forgets clients whose window ended.
func (l *Limiter) cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for client, w := range l.clients {
		if now.Sub(w.start) >= l.period {
			delete(l.clients, client)
			n++
		}
	}
	return n
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Middleware rejects over-limit requests with 429. onLimit, when set, writes
// the response instead of the default plain-text one.
func (l *Limiter) Middleware(onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if !l.Allow(ip) {
				retry := int(l.RetryAfter(ip).Round(time.Second) / time.Second)
				w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
				slog.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", ip, "path", r.URL.Path)
				if onLimit != nil {
					onLimit(w, r)
					return
				}
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For address, then X-Real-IP, then
// the host of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
