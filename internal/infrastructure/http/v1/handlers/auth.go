package handlers

import (
	"github.com/gin-gonic/gin"

	"kota/internal/core/apperror"
	"kota/internal/domain/auth"
	"kota/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves authentication and user administration endpoints.
type AuthHandler struct {
	*BaseHandler
	svc *auth.Service
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: NewBaseHandler(), svc: svc}
}

func userResponse(u *auth.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	pair, err := h.svc.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.ExpiresAt,
		User:        userResponse(pair.User),
	})
}

// CreateUser handles POST /users (admin only).
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), req.Username, req.Password, auth.Role(req.Role), actorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, user.ID.String())
}

// ListUsers handles GET /users (admin only).
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse(u))
	}
	h.OK(c, out)
}

// UpdateRole handles PUT /users/:id/role (admin only).
func (h *AuthHandler) UpdateRole(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateRoleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	user, err := h.svc.UpdateRole(c.Request.Context(), userID, auth.Role(req.Role), actorID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, userResponse(user))
}

// Deactivate handles DELETE /users/:id (admin only).
func (h *AuthHandler) Deactivate(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}
	if userID == actorID {
		h.Error(c, apperror.NewValidation("cannot deactivate own account"))
		return
	}

	if err := h.svc.Deactivate(c.Request.Context(), userID, actorID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ResetPassword handles POST /users/:id/reset-password (admin only).
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.ResetPasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), userID, req.NewPassword, actorID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "password reset")
}
