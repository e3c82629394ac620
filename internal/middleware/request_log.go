package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"guiderbooks-backend/internal/logger"
)

// RequestLogger writes one structured entry per request once the handler
// returns. Must run after chi's RequestID middleware.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if log == nil {
				return
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}

			reqLog := log
			if id := chimiddleware.GetReqID(r.Context()); id != "" {
				reqLog = log.With("request_id", id)
			}

			fields := []interface{}{
				"method", strings.ToUpper(r.Method),
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
			}

			switch {
			case status >= 500:
				reqLog.Error("HTTP request", fields...)
			case status >= 400:
				reqLog.Warn("HTTP request", fields...)
			default:
				reqLog.Info("HTTP request", fields...)
			}
		})
	}
}
