package userctx

import (
	"context"

	"github.com/yuvi90/chatapp/internal/models"
)

type ctxKey string

const principalKey ctxKey = "principal"

// New returns a context carrying the authenticated principal
func New(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext extracts the principal set by the auth middleware
func FromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}
