package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/meshmap/pkg/observability"
)

// requestLogger logs each request and reports it to the HTTP hooks.
// Pointer events arrive at frame rate, so successful requests log at debug
// level.
func requestLogger(logger *log.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			observability.HTTP().OnRequest(ctx, r.Method, r.URL.Path)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			observability.HTTP().OnResponse(ctx, r.Method, r.URL.Path, status, elapsed)

			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed,
				"request", middleware.GetReqID(ctx),
			}
			if status >= http.StatusInternalServerError {
				logger.Error("request", fields...)
			} else {
				logger.Debug("request", fields...)
			}
		})
	}
}
