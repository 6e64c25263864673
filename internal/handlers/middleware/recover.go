package middleware

import (
	"net/http"

	"github.com/yuvi90/chatapp/internal/apperrors"
	"github.com/yuvi90/chatapp/internal/handlers/render"
)

type errorLogger interface {
	Error(msg string, args ...any)
}

// Recover downgrades panics to a 500 envelope so one broken request
// never kills the server
func Recover(l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l.Error("panic while handling request", "uri", r.RequestURI, "panic", rec)
					render.Error(w, apperrors.ErrInternal)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
