package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskdeck-dev/taskdeck/internal/apperrors"
	"github.com/taskdeck-dev/taskdeck/internal/middleware"
	"github.com/taskdeck-dev/taskdeck/internal/problem"
	"github.com/taskdeck-dev/taskdeck/internal/services"
	"github.com/taskdeck-dev/taskdeck/internal/utils"
)

type MemberHandler struct {
	svc *services.MembershipService
}

func NewMemberHandler(svc *services.MembershipService) *MemberHandler {
	return &MemberHandler{svc: svc}
}

type AddMemberRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func memberTarget(ctx *gin.Context) (projectID, targetID, requesterID uint, err error) {
	projectID, err = middleware.ProjectID(ctx)
	if err != nil {
		return 0, 0, 0, err
	}

	raw, parseErr := strconv.ParseUint(ctx.Param("user_id"), 10, 32)
	if parseErr != nil {
		return 0, 0, 0, apperrors.NotFound("User is not a project member")
	}
	targetID = uint(raw)

	requesterID, userErr := utils.GetCurrentUserID(ctx)
	if userErr != nil {
		return 0, 0, 0, apperrors.Unauthorized("User not authenticated")
	}

	return projectID, targetID, requesterID, nil
}

func (h *MemberHandler) ListMembers(ctx *gin.Context) {
	projectID, err := middleware.ProjectID(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	requesterID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		problem.Render(ctx, apperrors.Unauthorized("User not authenticated"))
		return
	}

	members, err := h.svc.GetProjectMembers(ctx.Request.Context(), projectID, requesterID)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, members)
}

func (h *MemberHandler) AddMember(ctx *gin.Context) {
	projectID, err := middleware.ProjectID(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	requesterID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		problem.Render(ctx, apperrors.Unauthorized("User not authenticated"))
		return
	}

	var req AddMemberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		problem.Render(ctx, apperrors.Validation("Invalid request"))
		return
	}

	member, err := h.svc.AddMember(ctx.Request.Context(), projectID, requesterID, req.UserID, req.Role)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, member)
}

func (h *MemberHandler) UpdateMemberRole(ctx *gin.Context) {
	projectID, targetID, requesterID, err := memberTarget(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	var req UpdateMemberRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		problem.Render(ctx, apperrors.Validation("Invalid request"))
		return
	}

	member, err := h.svc.UpdateMemberRole(ctx.Request.Context(), projectID, requesterID, targetID, req.Role)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, member)
}

func (h *MemberHandler) RemoveMember(ctx *gin.Context) {
	projectID, targetID, requesterID, err := memberTarget(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	if err := h.svc.RemoveMember(ctx.Request.Context(), projectID, requesterID, targetID); err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
