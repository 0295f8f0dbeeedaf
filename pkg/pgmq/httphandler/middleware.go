package httphandler

import (
	"net/http"
	"time"

	// Packages
	httprate "github.com/go-chi/httprate"
	uuid "github.com/google/uuid"
	zap "go.uber.org/zap"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// HTTPMiddlewareFunc wraps a handler
type HTTPMiddlewareFunc func(http.HandlerFunc) http.HandlerFunc

// HTTPMiddlewareFuncs are applied in order, so the first middleware is the
// outermost. A nil value applies no middleware.
type HTTPMiddlewareFuncs []HTTPMiddlewareFunc

type statusWriter struct {
	http.ResponseWriter
	status int
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	RequestIdHeader = "X-Request-Id"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Wrap returns the handler wrapped in the middleware
func (m HTTPMiddlewareFuncs) Wrap(fn http.HandlerFunc) http.HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		if m[i] != nil {
			fn = m[i](fn)
		}
	}
	return fn
}

// LogMiddleware logs each request with a request id, which is taken from
// the X-Request-Id header or generated, and echoed in the response
func LogMiddleware(log *zap.Logger) HTTPMiddlewareFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := r.Header.Get(RequestIdHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIdHeader, id)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next(sw, r)

			fields := []zap.Field{
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("duration", time.Since(start)),
			}
			if sw.status >= http.StatusInternalServerError {
				log.Error("request", fields...)
			} else {
				log.Info("request", fields...)
			}
		}
	}
}

// RateLimitMiddleware limits the number of requests from each client IP
// address within a window
func RateLimitMiddleware(requests int, window time.Duration) HTTPMiddlewareFunc {
	limiter := httprate.Limit(requests, window, httprate.WithKeyFuncs(httprate.KeyByIP))
	return func(next http.HandlerFunc) http.HandlerFunc {
		return limiter(next).ServeHTTP
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush is required for streaming responses
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
