package middleware

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/kozaktomas/faceswap/internal/logger"
)

// RequestLogger injects a request-scoped logger carrying a fresh request id
// and logs every completed request.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.New().String()

			ctx := log.WithContext(r.Context())
			ctx = logger.WithFields(ctx, logger.Fields{logger.FieldRequestID: requestID})
			r = r.WithContext(ctx)
			w.Header().Set("X-Request-ID", requestID)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.FromContext(ctx).WithFields(logger.Fields{
				logger.FieldStatus:     ww.Status(),
				logger.FieldDurationMs: time.Since(start).Milliseconds(),
			}).Debugf("request completed: method=%s, path=%s", r.Method, r.URL.Path)
		})
	}
}
