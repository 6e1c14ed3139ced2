package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskdeck-dev/taskdeck/internal/apperrors"
	"github.com/taskdeck-dev/taskdeck/internal/middleware"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/problem"
	"github.com/taskdeck-dev/taskdeck/internal/services"
	"github.com/taskdeck-dev/taskdeck/internal/types"
	"github.com/taskdeck-dev/taskdeck/internal/utils"
)

type ProjectHandler struct {
	svc *services.ProjectService
}

func NewProjectHandler(svc *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func projectResponse(p *models.Project) types.ProjectResponse {
	return types.ProjectResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
		LastUpdatedBy: p.LastUpdatedBy,
		LastUpdatedAt: p.UpdatedAt,
	}
}

func (h *ProjectHandler) CreateProject(ctx *gin.Context) {
	var req CreateProjectRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		problem.Render(ctx, apperrors.Validation("Invalid request"))
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		problem.Render(ctx, apperrors.Unauthorized("User not authenticated"))
		return
	}

	project, err := h.svc.CreateProject(ctx.Request.Context(), services.CreateProjectCommand{
		Name:        req.Name,
		Description: req.Description,
		UserID:      userID,
	})

	if err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, projectResponse(project))
}

func (h *ProjectHandler) ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		problem.Render(ctx, apperrors.Unauthorized("User not authenticated"))
		return
	}

	projects, err := h.svc.FindAllProjects(ctx.Request.Context(), userID)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	response := make([]types.ProjectResponse, 0, len(projects))
	for i := range projects {
		response = append(response, projectResponse(&projects[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *ProjectHandler) GetProject(ctx *gin.Context) {
	projectID, err := middleware.ProjectID(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	project, err := h.svc.FindProjectByID(ctx.Request.Context(), projectID)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(project))
}

func (h *ProjectHandler) UpdateProject(ctx *gin.Context) {
	projectID, err := middleware.ProjectID(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		problem.Render(ctx, apperrors.Unauthorized("User not authenticated"))
		return
	}

	var req UpdateProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		problem.Render(ctx, apperrors.Validation("Invalid request"))
		return
	}

	project, err := h.svc.UpdateProject(ctx.Request.Context(), projectID, userID, services.UpdateProjectCommand{
		Name:        req.Name,
		Description: req.Description,
	})

	if err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(project))
}

func (h *ProjectHandler) DeleteProject(ctx *gin.Context) {
	projectID, err := middleware.ProjectID(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		problem.Render(ctx, apperrors.Unauthorized("User not authenticated"))
		return
	}

	if err := h.svc.DeleteProject(ctx.Request.Context(), projectID, userID); err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ProjectHandler) GetActivity(ctx *gin.Context) {
	projectID, err := middleware.ProjectID(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		problem.Render(ctx, apperrors.Unauthorized("User not authenticated"))
		return
	}

	entries, err := h.svc.ProjectActivity(ctx.Request.Context(), projectID, userID)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	response := make([]types.ActivityResponse, 0, len(entries))
	for _, e := range entries {
		var details any
		if len(e.Details) > 0 {
			_ = json.Unmarshal(e.Details, &details)
		}
		response = append(response, types.ActivityResponse{
			ID:        e.ID,
			ProjectID: e.ProjectID,
			ActorID:   e.ActorID,
			Action:    e.Action,
			Details:   details,
			CreatedAt: e.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, response)
}
