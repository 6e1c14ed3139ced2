package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskdeck-dev/taskdeck/internal/apperrors"
	"github.com/taskdeck-dev/taskdeck/internal/middleware"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/optional"
	"github.com/taskdeck-dev/taskdeck/internal/problem"
	"github.com/taskdeck-dev/taskdeck/internal/services"
	"github.com/taskdeck-dev/taskdeck/internal/types"
	"github.com/taskdeck-dev/taskdeck/internal/utils"
)

type TaskHandler struct {
	svc *services.TaskService
}

func NewTaskHandler(svc *services.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Summary     *string `json:"summary"`
}

type UpdateTaskRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Summary     optional.String `json:"summary"`
}

func taskResponse(t *models.Task) types.TaskResponse {
	return types.TaskResponse{
		ID:            t.ID,
		ProjectID:     t.ProjectID,
		Title:         t.Title,
		Description:   t.Description,
		Summary:       t.Summary,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
		LastUpdatedBy: t.LastUpdatedBy,
		LastUpdatedAt: t.UpdatedAt,
	}
}

// taskScope pulls the project id, task id and requester out of the request.
func taskScope(ctx *gin.Context) (projectID, taskID, requesterID uint, err error) {
	projectID, err = middleware.ProjectID(ctx)
	if err != nil {
		return 0, 0, 0, err
	}

	raw, parseErr := strconv.ParseUint(ctx.Param("task_id"), 10, 32)
	if parseErr != nil {
		return 0, 0, 0, apperrors.NotFound("Task not found")
	}
	taskID = uint(raw)

	requesterID, userErr := utils.GetCurrentUserID(ctx)
	if userErr != nil {
		return 0, 0, 0, apperrors.Unauthorized("User not authenticated")
	}

	return projectID, taskID, requesterID, nil
}

func (h *TaskHandler) CreateTask(ctx *gin.Context) {
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

	var req CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		problem.Render(ctx, apperrors.Validation("Invalid request"))
		return
	}

	task, err := h.svc.CreateTask(ctx.Request.Context(), services.CreateTaskCommand{
		UserID:      requesterID,
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Summary:     req.Summary,
	})

	if err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, taskResponse(task))
}

func (h *TaskHandler) ListTasks(ctx *gin.Context) {
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

	tasks, err := h.svc.FindAllTasksByProjectID(ctx.Request.Context(), projectID, requesterID)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	response := make([]types.TaskResponse, 0, len(tasks))
	for i := range tasks {
		response = append(response, taskResponse(&tasks[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *TaskHandler) GetTask(ctx *gin.Context) {
	projectID, taskID, requesterID, err := taskScope(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	task, err := h.svc.FindTaskByID(ctx.Request.Context(), projectID, taskID, requesterID)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskResponse(task))
}

func (h *TaskHandler) UpdateTask(ctx *gin.Context) {
	projectID, taskID, requesterID, err := taskScope(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	var req UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		problem.Render(ctx, apperrors.Validation("Invalid request"))
		return
	}

	task, err := h.svc.UpdateTask(ctx.Request.Context(), projectID, taskID, requesterID, services.UpdateTaskCommand{
		Title:       req.Title,
		Description: req.Description,
		Summary:     req.Summary,
	})

	if err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskResponse(task))
}

func (h *TaskHandler) DeleteTask(ctx *gin.Context) {
	projectID, taskID, requesterID, err := taskScope(ctx)
	if err != nil {
		problem.Render(ctx, err)
		return
	}

	if err := h.svc.DeleteTask(ctx.Request.Context(), projectID, taskID, requesterID); err != nil {
		problem.Render(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
