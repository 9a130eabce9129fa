package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type contextKey struct{}

// RequestIDHeader is echoed back and reused when the client sends it.
const RequestIDHeader = "X-Request-ID"

// IntoContext stores logger in ctx.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request logger, or one wrapping slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: ComponentApp}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware attaches a request-scoped logger carrying a request id and logs
// the start and completion of every request. clientIP extracts the address
// to report.
func Middleware(logger *Logger, clientIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > 64 {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			reqLogger := logger.WithComponent(ComponentHTTP).With(FieldRequestID, requestID)
			ctx := IntoContext(r.Context(), reqLogger)

			ip := clientIP(r)
			reqLogger.DebugContext(ctx, "HTTP request started", NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
				ToSlice()...)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}
			fields := NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, "", "").
				WithHTTPResponse(rec.status, time.Since(start).Milliseconds())
			fields[FieldClientIP] = ip
			reqLogger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
		})
	}
}
