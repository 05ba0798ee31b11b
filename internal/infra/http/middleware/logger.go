package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/xavierca1/door-leads/internal/infra/logger"
)

// RequestLogger logs one line per request with the chi request id.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Component("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			ev := log.Info()
			if status >= http.StatusInternalServerError {
				ev = log.Error()
			} else if status >= http.StatusBadRequest {
				ev = log.Warn()
			}
			ev.Str("request_id", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote_ip", r.RemoteAddr).
				Msg("request")
		})
	}
}
