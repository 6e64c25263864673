package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/yuvi90/chatapp/internal/apperrors"
	"github.com/yuvi90/chatapp/internal/handlers/render"
	"github.com/yuvi90/chatapp/internal/handlers/userctx"
	"github.com/yuvi90/chatapp/internal/models"
)

type authenticator interface {
	// Authenticate verifies a bearer access token and returns the principal
	Authenticate(ctx context.Context, access string) (models.Principal, error)
}

type userLookup interface {
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

// Auth verifies the Authorization header and puts the authenticated
// principal into the request context. Missing credential is 401, a present
// but invalid token is 403.
func Auth(as authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				render.Error(w, apperrors.ErrUnauthenticated)
				return
			}

			principal, err := as.Authenticate(r.Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				render.Error(w, err)
				return
			}

			ctx := userctx.New(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly gates a handler behind the admin role. The principal's account
// must still exist: a deleted admin keeps a valid token until expiry but
// loses access here.
func AdminOnly(users userLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := userctx.FromContext(r.Context())
			if !ok {
				render.Error(w, apperrors.ErrUnauthenticated)
				return
			}

			if _, err := users.GetByUsername(r.Context(), principal.Username); err != nil {
				render.Error(w, apperrors.ErrUnauthenticated)
				return
			}

			if !principal.IsAdmin() {
				render.Error(w, apperrors.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
