package logging

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Middleware attaches a logger carrying the chi request id to each request.
// It must run after middleware.RequestID.
func Middleware(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base.With(zap.String("request_id", middleware.GetReqID(r.Context())))
			next.ServeHTTP(w, r.WithContext(ContextWithLogger(r.Context(), l)))
		})
	}
}
