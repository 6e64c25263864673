package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// NewRouter mounts the API under /api/v1. Auth routes are public, admin
// routes sit behind bearer auth plus the admin gate, user routes decide
// per endpoint.
func NewRouter(
	authHandler *AuthHandler,
	userHandler *UserHandler,
	adminHandler *AdminHandler,
	authMiddleware func(http.Handler) http.Handler,
	adminMiddleware func(http.Handler) http.Handler,
	global ...func(http.Handler) http.Handler,
) http.Handler {
	root := http.NewServeMux()

	root.Handle("/api/v1/auth/", http.StripPrefix("/api/v1/auth", authHandler.Handler()))
	root.Handle("/api/v1/users/", http.StripPrefix("/api/v1/users", userHandler.Handler(authMiddleware)))
	root.Handle("/api/v1/admin/", http.StripPrefix("/api/v1/admin",
		chain(adminHandler.Handler(), authMiddleware, adminMiddleware),
	))

	return chain(root, global...)
}
