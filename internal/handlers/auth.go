package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/yuvi90/chatapp/internal/handlers/render"
	"github.com/yuvi90/chatapp/internal/models"
	"github.com/yuvi90/chatapp/internal/service/account"
	"github.com/yuvi90/chatapp/internal/service/session"
)

// Name of the HTTP-only cookie carrying the refresh token
const refreshCookie = "jwt"

type sessionService interface {
	// Login verifies credentials and starts the single active session.
	// Has to return apperrors.ErrLoginNotFound for unknown username and
	// apperrors.ErrInvalidCredentials for a wrong password
	Login(ctx context.Context, username string, password string) (session.LoginResult, error)

	// Logout invalidates the presented refresh token, idempotent
	Logout(ctx context.Context, refresh string) (clearCookie bool, err error)

	// Refresh mints a new access token for a valid refresh token.
	// Has to return apperrors.ErrUnauthenticated when no token presented
	// and apperrors.ErrForbidden when the token is unknown or invalid
	Refresh(ctx context.Context, refresh string) (models.IssuedToken, error)
}

type registrar interface {
	// Register creates the user and triggers the verification mail.
	// Has to return apperrors.ErrUserExists on duplicate username or email
	Register(ctx context.Context, params account.RegisterParams) (models.User, error)
}

type AuthHandler struct {
	sessions sessionService
	accounts registrar
}

func NewAuth(sessions sessionService, accounts registrar) *AuthHandler {
	return &AuthHandler{sessions: sessions, accounts: accounts}
}

func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("GET /logout", h.logout)
	mux.HandleFunc("GET /refresh", h.refresh)

	return mux
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		FirstName string `json:"firstName" validate:"required,min=3,max=12"`
		LastName  string `json:"lastName" validate:"required,min=3,max=12"`
		Username  string `json:"username" validate:"required,min=3,max=12"`
		Email     string `json:"email" validate:"required,email"`
		Password  string `json:"password" validate:"required,min=6"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	_, err = h.accounts.Register(r.Context(), account.RegisterParams{
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Username:  data.Username,
		Email:     data.Email,
		Password:  data.Password,
	})
	if err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusCreated, "User created successfully!", nil)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type LoginResponse struct {
		AccessToken string            `json:"accessToken"`
		User        models.PublicUser `json:"user"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	result, err := h.sessions.Login(r.Context(), data.Username, data.Password)
	if err != nil {
		render.Error(w, err)
		return
	}

	setRefreshCookie(w, result.Refresh)
	render.JSON(w, http.StatusCreated, "Login successful!", LoginResponse{
		AccessToken: result.Access.Value,
		User:        result.User.Public(),
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	clearCookie, err := h.sessions.Logout(r.Context(), readRefreshCookie(r))
	if err != nil {
		render.Error(w, err)
		return
	}

	if clearCookie {
		clearRefreshCookie(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshResponse struct {
		AccessToken string `json:"accessToken"`
	}

	access, err := h.sessions.Refresh(r.Context(), readRefreshCookie(r))
	if err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusCreated, "Success!", RefreshResponse{AccessToken: access.Value})
}

func setRefreshCookie(w http.ResponseWriter, refresh models.IssuedToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    refresh.Value,
		Path:     "/",
		MaxAge:   int(time.Until(refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func readRefreshCookie(r *http.Request) string {
	cookie, err := r.Cookie(refreshCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
