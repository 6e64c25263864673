package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/yuvi90/chatapp/internal/handlers/render"
	"github.com/yuvi90/chatapp/internal/models"
)

type adminService interface {
	ListUsers(ctx context.Context) ([]models.PublicUser, error)

	// AssignRole has to return apperrors.ErrUserNotFound for unknown users
	AssignRole(ctx context.Context, userID uuid.UUID, role string) error
}

type AdminHandler struct {
	accounts adminService
}

func NewAdmin(accounts adminService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

func (h *AdminHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", h.listUsers)
	mux.HandleFunc("PATCH /assign-role", h.assignRole)

	return mux
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusOK, "Users fetched successfully!", users)
}

func (h *AdminHandler) assignRole(w http.ResponseWriter, r *http.Request) {
	type AssignRoleRequest struct {
		UserID string `json:"userId" validate:"required,uuid"`
		Role   string `json:"role" validate:"required,oneof=basic admin"`
	}

	data, err := render.BindAndValidate[AssignRoleRequest](w, r)
	if err != nil {
		return
	}

	// uuid tag already validated the format
	userID := uuid.MustParse(data.UserID)

	if err := h.accounts.AssignRole(r.Context(), userID, data.Role); err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusOK, "User role updated successfully!", nil)
}
