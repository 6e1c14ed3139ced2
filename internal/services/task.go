package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/taskdeck-dev/taskdeck/internal/apperrors"
	"github.com/taskdeck-dev/taskdeck/internal/events"
	"github.com/taskdeck-dev/taskdeck/internal/metrics"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/optional"
	"github.com/taskdeck-dev/taskdeck/internal/permissions"
)

type TaskService struct {
	db      *gorm.DB
	logger  *zap.Logger
	metrics *metrics.Metrics
	hub     *events.Hub
}

func NewTaskService(db *gorm.DB, logger *zap.Logger, m *metrics.Metrics, hub *events.Hub) *TaskService {
	return &TaskService{db: db, logger: logger, metrics: m, hub: hub}
}

// requireMember re-validates project membership inside the service even
// though the route guard already checks it.
func (s *TaskService) requireMember(ctx context.Context, projectID, userID uint) error {
	member, err := findMembership(ctx, s.db, projectID, userID)
	if err != nil {
		return apperrors.Internal("failed to fetch membership", err)
	}

	if !permissions.CanManageTasks(member) {
		s.metrics.RecordPermissionDenied()
		return apperrors.Forbidden("User is not a project member")
	}

	return nil
}

type CreateTaskCommand struct {
	UserID      uint
	ProjectID   uint
	Title       string
	Description string
	Summary     *string
}

func (s *TaskService) CreateTask(ctx context.Context, cmd CreateTaskCommand) (*models.Task, error) {
	if cmd.UserID == 0 {
		return nil, apperrors.Unauthorized("User not authenticated")
	}

	if cmd.ProjectID == 0 {
		return nil, apperrors.NotFound("Project not found")
	}

	if cmd.Title == "" {
		return nil, apperrors.Validation("Task title is required")
	}

	if err := s.requireMember(ctx, cmd.ProjectID, cmd.UserID); err != nil {
		return nil, err
	}

	task := models.Task{
		ProjectID:     cmd.ProjectID,
		Title:         cmd.Title,
		Description:   cmd.Description,
		Summary:       cmd.Summary,
		CreatedBy:     cmd.UserID,
		LastUpdatedBy: cmd.UserID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		return writeActivity(tx, cmd.ProjectID, cmd.UserID, "task.created",
			map[string]any{"task_id": task.ID, "title": task.Title})
	})

	if err != nil {
		return nil, apperrors.Internal("failed to create task", err)
	}

	s.logger.Info("task created",
		zap.Uint("task_id", task.ID),
		zap.Uint("project_id", cmd.ProjectID),
		zap.Uint("created_by", cmd.UserID))

	s.hub.Publish(events.Event{
		Type:      events.TaskCreated,
		ProjectID: cmd.ProjectID,
		ActorID:   cmd.UserID,
		Payload:   map[string]any{"task_id": task.ID, "title": task.Title},
	})

	return &task, nil
}

func (s *TaskService) FindAllTasksByProjectID(ctx context.Context, projectID, requesterID uint) ([]models.Task, error) {
	if projectID == 0 {
		return nil, apperrors.NotFound("Project not found")
	}

	if err := s.requireMember(ctx, projectID, requesterID); err != nil {
		return nil, err
	}

	var tasks []models.Task
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id asc").
		Find(&tasks).Error; err != nil {
		return nil, apperrors.Internal("failed to list tasks", err)
	}

	return tasks, nil
}

// findTask loads a task and verifies it belongs to the project.
func (s *TaskService) findTask(ctx context.Context, projectID, taskID uint) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", taskID, projectID).
		First(&task).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to fetch task", err)
	}

	return &task, nil
}

func (s *TaskService) FindTaskByID(ctx context.Context, projectID, taskID, requesterID uint) (*models.Task, error) {
	if err := s.requireMember(ctx, projectID, requesterID); err != nil {
		return nil, err
	}
	return s.findTask(ctx, projectID, taskID)
}

type UpdateTaskCommand struct {
	Title       *string
	Description *string
	Summary     optional.String
}

// UpdateTask applies a field-level partial update: nil pointers leave the
// column alone, and Summary distinguishes an absent key from an explicit null
// (which clears the column).
func (s *TaskService) UpdateTask(ctx context.Context, projectID, taskID, requesterID uint, cmd UpdateTaskCommand) (*models.Task, error) {
	if err := s.requireMember(ctx, projectID, requesterID); err != nil {
		return nil, err
	}

	task, err := s.findTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"last_updated_by": requesterID}

	if cmd.Title != nil {
		if *cmd.Title == "" {
			return nil, apperrors.Validation("Task title is required")
		}
		updates["title"] = *cmd.Title
	}
	if cmd.Description != nil {
		updates["description"] = *cmd.Description
	}
	if cmd.Summary.Set {
		if cmd.Summary.Value == nil {
			updates["summary"] = gorm.Expr("NULL")
		} else {
			updates["summary"] = *cmd.Summary.Value
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(task).Updates(updates).Error; err != nil {
			return err
		}
		return writeActivity(tx, projectID, requesterID, "task.updated",
			map[string]any{"task_id": task.ID})
	})

	if err != nil {
		return nil, apperrors.Internal("failed to update task", err)
	}

	task, err = s.findTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	s.hub.Publish(events.Event{
		Type:      events.TaskUpdated,
		ProjectID: projectID,
		ActorID:   requesterID,
		Payload:   map[string]any{"task_id": task.ID},
	})

	return task, nil
}

// DeleteTask removes the task and all its comments in a single transaction.
func (s *TaskService) DeleteTask(ctx context.Context, projectID, taskID, requesterID uint) error {
	if err := s.requireMember(ctx, projectID, requesterID); err != nil {
		return err
	}

	task, err := s.findTask(ctx, projectID, taskID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("task_id = ?", taskID).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(task).Error; err != nil {
			return err
		}
		return writeActivity(tx, projectID, requesterID, "task.deleted",
			map[string]any{"task_id": taskID, "title": task.Title})
	})

	if err != nil {
		return apperrors.Internal("failed to delete task", err)
	}

	s.logger.Info("task deleted",
		zap.Uint("task_id", taskID),
		zap.Uint("project_id", projectID),
		zap.Uint("deleted_by", requesterID))

	s.hub.Publish(events.Event{
		Type:      events.TaskDeleted,
		ProjectID: projectID,
		ActorID:   requesterID,
		Payload:   map[string]any{"task_id": taskID},
	})

	return nil
}

func (s *TaskService) CreateComment(ctx context.Context, projectID, taskID, requesterID uint, text string) (*models.TaskComment, error) {
	if text == "" {
		return nil, apperrors.Validation("Comment is required")
	}

	if err := s.requireMember(ctx, projectID, requesterID); err != nil {
		return nil, err
	}

	if _, err := s.findTask(ctx, projectID, taskID); err != nil {
		return nil, err
	}

	comment := models.TaskComment{
		TaskID:        taskID,
		Comment:       text,
		CreatedBy:     requesterID,
		LastUpdatedBy: requesterID,
	}

	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, apperrors.Internal("failed to create comment", err)
	}

	s.hub.Publish(events.Event{
		Type:      events.CommentAdded,
		ProjectID: projectID,
		ActorID:   requesterID,
		Payload:   map[string]any{"task_id": taskID, "comment_id": comment.ID},
	})

	return &comment, nil
}

func (s *TaskService) FindCommentsByTaskID(ctx context.Context, projectID, taskID, requesterID uint) ([]models.TaskComment, error) {
	if err := s.requireMember(ctx, projectID, requesterID); err != nil {
		return nil, err
	}

	if _, err := s.findTask(ctx, projectID, taskID); err != nil {
		return nil, err
	}

	var comments []models.TaskComment
	if err := s.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("id asc").
		Find(&comments).Error; err != nil {
		return nil, apperrors.Internal("failed to list comments", err)
	}

	return comments, nil
}

// findComment loads a comment and verifies its task belongs to the project.
func (s *TaskService) findComment(ctx context.Context, projectID, commentID uint) (*models.TaskComment, error) {
	var comment models.TaskComment
	err := s.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = task_comments.task_id AND tasks.deleted_at IS NULL").
		Where("task_comments.id = ? AND tasks.project_id = ?", commentID, projectID).
		First(&comment).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Comment not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to fetch comment", err)
	}

	return &comment, nil
}

// UpdateComment edits a comment. Only the author may edit; this is enforced
// here rather than at the route layer.
func (s *TaskService) UpdateComment(ctx context.Context, projectID, commentID, requesterID uint, text string) (*models.TaskComment, error) {
	if text == "" {
		return nil, apperrors.Validation("Comment is required")
	}

	if err := s.requireMember(ctx, projectID, requesterID); err != nil {
		return nil, err
	}

	comment, err := s.findComment(ctx, projectID, commentID)
	if err != nil {
		return nil, err
	}

	if comment.CreatedBy != requesterID {
		s.metrics.RecordPermissionDenied()
		return nil, apperrors.Forbidden("Only the comment author can edit this comment")
	}

	updates := map[string]interface{}{
		"comment":         text,
		"last_updated_by": requesterID,
	}

	if err := s.db.WithContext(ctx).Model(comment).Updates(updates).Error; err != nil {
		return nil, apperrors.Internal("failed to update comment", err)
	}

	return comment, nil
}

// DeleteComment removes a comment. Author only.
func (s *TaskService) DeleteComment(ctx context.Context, projectID, commentID, requesterID uint) error {
	if err := s.requireMember(ctx, projectID, requesterID); err != nil {
		return err
	}

	comment, err := s.findComment(ctx, projectID, commentID)
	if err != nil {
		return err
	}

	if comment.CreatedBy != requesterID {
		s.metrics.RecordPermissionDenied()
		return apperrors.Forbidden("Only the comment author can delete this comment")
	}

	if err := s.db.WithContext(ctx).Unscoped().Delete(comment).Error; err != nil {
		return apperrors.Internal("failed to delete comment", err)
	}

	return nil
}
