// Package http exposes the planner as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "budgetplanner/internal/log"
	"budgetplanner/internal/middleware/ratelimit"
	"budgetplanner/internal/middleware/security"
	"budgetplanner/internal/services"
)

const defaultSessionCookie = "planner_session"

// Options wires a Server. Exporter may be nil, which disables the export
// routes; LoginLimiter may be nil, which disables login throttling.
type Options struct {
	Addr              string
	Auth              *services.AuthService
	Planner           *services.PlannerService
	Exporter          *services.ReportExporter
	LoginLimiter      *ratelimit.Limiter
	Logger            *applog.Logger
	SessionCookieName string
	// Ready reports whether dependencies are reachable.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	auth         *services.AuthService
	planner      *services.PlannerService
	exporter     *services.ReportExporter
	loginLimiter *ratelimit.Limiter
	cookieName   string
	ready        func(context.Context) error
	now          func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.SessionCookieName == "" {
		opts.SessionCookieName = defaultSessionCookie
	}

	s := &Server{
		auth:         opts.Auth,
		planner:      opts.Planner,
		exporter:     opts.Exporter,
		loginLimiter: opts.LoginLimiter,
		cookieName:   opts.SessionCookieName,
		ready:        opts.Ready,
		now:          time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	login := http.Handler(http.HandlerFunc(s.handleLogin))
	if s.loginLimiter != nil {
		login = s.loginLimiter.Middleware(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many login attempts, try again later"})
		})(login)
	}
	mux.Handle("POST /api/auth/login", login)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/me", s.authed(s.handleMe))

	mux.HandleFunc("GET /api/state", s.authed(s.handleGetState))
	mux.HandleFunc("PUT /api/state", s.authed(s.handlePutState))

	mux.HandleFunc("GET /api/months/{month}/report", s.authed(s.handleReport))
	mux.HandleFunc("GET /api/months/{month}/transactions", s.authed(s.handleListTransactions))
	mux.HandleFunc("POST /api/months/{month}/transactions", s.authed(s.handleAddTransaction))
	mux.HandleFunc("PUT /api/months/{month}/transactions/{id}", s.authed(s.handleEditTransaction))
	mux.HandleFunc("DELETE /api/months/{month}/transactions/{id}", s.authed(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/months/{month}/reset", s.authed(s.handleResetMonth))
	mux.HandleFunc("PUT /api/months/{month}/period", s.authed(s.handleSetPeriod))
	mux.HandleFunc("POST /api/months/{month}/export", s.authed(s.handleExport))
	mux.HandleFunc("GET /api/months/{month}/export", s.authed(s.handleLastExport))

	mux.HandleFunc("GET /api/categories/{type}", s.authed(s.handleListCategories))
	mux.HandleFunc("POST /api/categories/{type}", s.authed(s.handleAddCategory))

	mux.HandleFunc("GET /api/presets", s.authed(s.handleListPresets))
	mux.HandleFunc("POST /api/presets", s.authed(s.handleCreatePreset))
	mux.HandleFunc("PUT /api/presets/{id}", s.authed(s.handleUpdatePreset))
	mux.HandleFunc("DELETE /api/presets/{id}", s.authed(s.handleDeletePreset))
	mux.HandleFunc("POST /api/presets/{id}/toggle", s.authed(s.handleTogglePreset))

	var handler http.Handler = mux
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = applog.Middleware(opts.Logger, ratelimit.ClientIP)(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the login limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.loginLimiter != nil {
			s.loginLimiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
