package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskdeck-dev/taskdeck/internal/apperrors"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/problem"
	"github.com/taskdeck-dev/taskdeck/internal/services"
	"github.com/taskdeck-dev/taskdeck/internal/types"
	"github.com/taskdeck-dev/taskdeck/internal/utils"
)

// UserHandler exposes the system-admin user management surface.
type UserHandler struct {
	svc *services.AuthService
}

func NewUserHandler(svc *services.AuthService) *UserHandler {
	return &UserHandler{svc: svc}
}

// requester rebuilds the authenticated user for the service's global-role
// checks.
func requester(ctx *gin.Context) (*models.User, error) {
	cu, err := utils.GetCurrentUser(ctx)
	if err != nil {
		return nil, apperrors.Unauthorized("User not authenticated")
	}

	return &models.User{
		Model: gorm.Model{ID: cu.ID},
		Name:  cu.Name,
		Email: cu.Email,
		Role:  cu.Role,
	}, nil
}

func (h *UserHandler) ListUsers(ctx *gin.Context) {
	user, err := requester(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	users, err := h.svc.ListUsers(ctx.Request.Context(), user)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	response := make([]types.UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, types.UserResponse{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
			Role:  u.Role,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *UserHandler) UpdateUserRole(ctx *gin.Context) {
	user, err := requester(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	targetID, err := strconv.ParseUint(ctx.Param("user_id"), 10, 32)
	if err != nil {
		problem.Render(ctx, apperrors.NotFound("User not found"))
		return
	}

	var req UpdateUserRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		problem.Render(ctx, apperrors.Validation("Invalid request"))
		return
	}

	updated, err := h.svc.UpdateUserRole(ctx.Request.Context(), user, uint(targetID), req.Role)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.UserResponse{
		ID:    updated.ID,
		Name:  updated.Name,
		Email: updated.Email,
		Role:  updated.Role,
	})
}
