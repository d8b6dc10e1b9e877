package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"listing-counter/utils"
)

type ctxKey int

const loggerKey ctxKey = iota

// LoggerMiddleware tags every request with a trace id, stores a request
// logger in the context and logs the outcome.
func LoggerMiddleware(logger *utils.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get("X-Trace-ID")
			if traceID == "" {
				traceID = uuid.NewString()
			}
			w.Header().Set("X-Trace-ID", traceID)

			reqLogger := logger.With("trace_id", traceID)
			httpLogger := reqLogger.With(
				"http_method", r.Method,
				"http_path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), loggerKey, reqLogger)))

			httpLogger.With(
				"status_code", ww.Status(),
				"bytes_written", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			).Info("[server] %s %s", r.Method, r.URL.Path)
		})
	}
}

func loggerFrom(ctx context.Context, fallback *utils.Logger) *utils.Logger {
	if l, ok := ctx.Value(loggerKey).(*utils.Logger); ok {
		return l
	}
	return fallback
}
