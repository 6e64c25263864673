package handlers

import (
	"context"
	"net/http"

	"github.com/yuvi90/chatapp/internal/apperrors"
	"github.com/yuvi90/chatapp/internal/handlers/render"
	"github.com/yuvi90/chatapp/internal/handlers/userctx"
)

type accountService interface {
	VerifyEmail(ctx context.Context, plainToken string) error
	ResendVerification(ctx context.Context, username string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, plainToken string, newPassword string, confirmPassword string) error
	ChangePassword(ctx context.Context, username string, oldPassword string, newPassword string, confirmPassword string) error
}

type UserHandler struct {
	accounts accountService
}

func NewUser(accounts accountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// Handler mounts the user routes. Resend and change-password need an
// authenticated caller, so they go through the auth middleware.
func (h *UserHandler) Handler(auth func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /verify-email/{token}", h.verifyEmail)
	mux.HandleFunc("POST /forgot-password", h.forgotPassword)
	mux.HandleFunc("POST /reset-password/{token}", h.resetPassword)
	mux.Handle("POST /resend-verification-email", auth(http.HandlerFunc(h.resendVerification)))
	mux.Handle("POST /change-password", auth(http.HandlerFunc(h.changePassword)))

	return mux
}

func (h *UserHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.VerifyEmail(r.Context(), r.PathValue("token")); err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusOK, "Email verified successfully!", nil)
}

func (h *UserHandler) resendVerification(w http.ResponseWriter, r *http.Request) {
	principal, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, apperrors.ErrUnauthenticated)
		return
	}

	if err := h.accounts.ResendVerification(r.Context(), principal.Username); err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusOK, "Verification email sent successfully!", nil)
}

func (h *UserHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	type ForgotPasswordRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	data, err := render.BindAndValidate[ForgotPasswordRequest](w, r)
	if err != nil {
		return
	}

	if err := h.accounts.ForgotPassword(r.Context(), data.Email); err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusOK, "Password reset email sent successfully!", nil)
}

func (h *UserHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	type ResetPasswordRequest struct {
		NewPassword     string `json:"newPassword" validate:"required,min=6"`
		ConfirmPassword string `json:"confirmPassword" validate:"required"`
	}

	data, err := render.BindAndValidate[ResetPasswordRequest](w, r)
	if err != nil {
		return
	}

	err = h.accounts.ResetPassword(r.Context(), r.PathValue("token"), data.NewPassword, data.ConfirmPassword)
	if err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusOK, "Password reset successfully!", nil)
}

func (h *UserHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	type ChangePasswordRequest struct {
		OldPassword     string `json:"oldPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=6"`
		ConfirmPassword string `json:"confirmPassword" validate:"required"`
	}

	principal, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, apperrors.ErrUnauthenticated)
		return
	}

	data, err := render.BindAndValidate[ChangePasswordRequest](w, r)
	if err != nil {
		return
	}

	err = h.accounts.ChangePassword(r.Context(), principal.Username, data.OldPassword, data.NewPassword, data.ConfirmPassword)
	if err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusOK, "Password changed successfully!", nil)
}
