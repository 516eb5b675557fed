package middleware

import (
	"net/http"
	"time"

	"github.com/Dosada05/tournament-calendar/logger"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLogger tags each request with an id and logs it when it completes.
// An incoming X-Request-ID is kept if present.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	base := logger.OrNop(log).Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			reqLog := base.With(zap.String("request_id", id))
			w.Header().Set(RequestIDHeader, id)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				}
				if status >= http.StatusInternalServerError {
					reqLog.Warn("request completed", fields...)
					return
				}
				reqLog.Info("request completed", fields...)
			}()

			next.ServeHTTP(ww, r.WithContext(withLogger(r.Context(), id, reqLog)))
		})
	}
}
