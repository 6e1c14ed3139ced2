package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskdeck-dev/taskdeck/internal/apperrors"
	"github.com/taskdeck-dev/taskdeck/internal/middleware"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/problem"
	"github.com/taskdeck-dev/taskdeck/internal/services"
	"github.com/taskdeck-dev/taskdeck/internal/types"
	"github.com/taskdeck-dev/taskdeck/internal/utils"
)

type CommentHandler struct {
	svc *services.TaskService
}

func NewCommentHandler(svc *services.TaskService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

type CommentRequest struct {
	Comment string `json:"comment" binding:"required"`
}

func commentResponse(c *models.TaskComment) types.CommentResponse {
	return types.CommentResponse{
		ID:            c.ID,
		TaskID:        c.TaskID,
		Comment:       c.Comment,
		CreatedBy:     c.CreatedBy,
		CreatedAt:     c.CreatedAt,
		LastUpdatedBy: c.LastUpdatedBy,
		LastUpdatedAt: c.UpdatedAt,
	}
}

func (h *CommentHandler) CreateComment(ctx *gin.Context) {
	projectID, taskID, requesterID, err := taskScope(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	var req CommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		problem.Render(ctx, apperrors.Validation("Invalid request"))
		return
	}

	comment, err := h.svc.CreateComment(ctx.Request.Context(), projectID, taskID, requesterID, req.Comment)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, commentResponse(comment))
}

func (h *CommentHandler) ListComments(ctx *gin.Context) {
	projectID, taskID, requesterID, err := taskScope(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	comments, err := h.svc.FindCommentsByTaskID(ctx.Request.Context(), projectID, taskID, requesterID)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	response := make([]types.CommentResponse, 0, len(comments))
	for i := range comments {
		response = append(response, commentResponse(&comments[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func commentScope(ctx *gin.Context) (projectID, commentID, requesterID uint, err error) {
	projectID, err = middleware.ProjectID(ctx)
	if err != nil {
		return 0, 0, 0, err
	}

	raw, parseErr := strconv.ParseUint(ctx.Param("comment_id"), 10, 32)
	if parseErr != nil {
		return 0, 0, 0, apperrors.NotFound("Comment not found")
	}
	commentID = uint(raw)

	requesterID, userErr := utils.GetCurrentUserID(ctx)
	if userErr != nil {
		return 0, 0, 0, apperrors.Unauthorized("User not authenticated")
	}

	return projectID, commentID, requesterID, nil
}

func (h *CommentHandler) UpdateComment(ctx *gin.Context) {
	projectID, commentID, requesterID, err := commentScope(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	var req CommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		problem.Render(ctx, apperrors.Validation("Invalid request"))
		return
	}

	comment, err := h.svc.UpdateComment(ctx.Request.Context(), projectID, commentID, requesterID, req.Comment)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, commentResponse(comment))
}

func (h *CommentHandler) DeleteComment(ctx *gin.Context) {
	projectID, commentID, requesterID, err := commentScope(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	if err := h.svc.DeleteComment(ctx.Request.Context(), projectID, commentID, requesterID); err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
