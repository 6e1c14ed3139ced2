package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/taskdeck-dev/taskdeck/internal/apperrors"
	"github.com/taskdeck-dev/taskdeck/internal/metrics"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/permissions"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

type ProjectService struct {
	db      *gorm.DB
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewProjectService(db *gorm.DB, logger *zap.Logger, m *metrics.Metrics) *ProjectService {
	return &ProjectService{db: db, logger: logger, metrics: m}
}

type CreateProjectCommand struct {
	Name        string
	Description string
	UserID      uint
}

// CreateProject inserts the project and the creator's ADMIN membership in one
// transaction; the creator invariant is never observable as violated.
func (s *ProjectService) CreateProject(ctx context.Context, cmd CreateProjectCommand) (*models.Project, error) {
	if cmd.UserID == 0 {
		return nil, apperrors.Unauthorized("User not authenticated")
	}

	if cmd.Name == "" {
		return nil, apperrors.Validation("Project name is required")
	}

	project := models.Project{
		Name:          cmd.Name,
		Description:   cmd.Description,
		CreatedBy:     cmd.UserID,
		LastUpdatedBy: cmd.UserID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		membership := models.ProjectMembership{
			ProjectID: project.ID,
			UserID:    cmd.UserID,
			Role:      types.RoleAdmin,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}

		return writeActivity(tx, project.ID, cmd.UserID, "project.created",
			map[string]any{"name": project.Name})
	})

	if err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.Conflict("Project name already exists")
		}
		return nil, apperrors.Internal("failed to create project", err)
	}

	s.logger.Info("project created",
		zap.Uint("project_id", project.ID),
		zap.Uint("created_by", cmd.UserID))

	return &project, nil
}

// FindAllProjects lists the projects the user is a member of. The scoping
// lives entirely in the store query.
func (s *ProjectService) FindAllProjects(ctx context.Context, userID uint) ([]models.Project, error) {
	if userID == 0 {
		return nil, apperrors.Unauthorized("User not authenticated")
	}

	var projects []models.Project
	err := s.db.WithContext(ctx).
		Joins("JOIN project_memberships ON project_memberships.project_id = projects.id AND project_memberships.deleted_at IS NULL").
		Where("project_memberships.user_id = ?", userID).
		Find(&projects).Error

	if err != nil {
		return nil, apperrors.Internal("failed to list projects", err)
	}

	return projects, nil
}

func (s *ProjectService) FindProjectByID(ctx context.Context, projectID uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Project not found")
		}
		return nil, apperrors.Internal("failed to fetch project", err)
	}
	return &project, nil
}

type UpdateProjectCommand struct {
	Name        *string
	Description *string
}

// UpdateProject applies a partial update. Project admins only.
func (s *ProjectService) UpdateProject(ctx context.Context, projectID, requesterID uint, cmd UpdateProjectCommand) (*models.Project, error) {
	requester, err := findMembership(ctx, s.db, projectID, requesterID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch membership", err)
	}

	if !permissions.IsProjectAdmin(requester) {
		s.metrics.RecordPermissionDenied()
		return nil, apperrors.Forbidden("User must be project admin")
	}

	project, err := s.FindProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"last_updated_by": requesterID}
	if cmd.Name != nil {
		if *cmd.Name == "" {
			return nil, apperrors.Validation("Project name is required")
		}
		updates["name"] = *cmd.Name
	}
	if cmd.Description != nil {
		updates["description"] = *cmd.Description
	}

	if err := s.db.WithContext(ctx).Model(project).Updates(updates).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.Conflict("Project name already exists")
		}
		return nil, apperrors.Internal("failed to update project", err)
	}

	return project, nil
}

// DeleteProject removes the project and everything under it. Project admins
// only; the database cascades memberships, tasks, comments and activity.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID, requesterID uint) error {
	requester, err := findMembership(ctx, s.db, projectID, requesterID)
	if err != nil {
		return apperrors.Internal("failed to fetch membership", err)
	}

	if !permissions.IsProjectAdmin(requester) {
		s.metrics.RecordPermissionDenied()
		return apperrors.Forbidden("User must be project admin")
	}

	project, err := s.FindProjectByID(ctx, projectID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Unscoped().Delete(project).Error; err != nil {
		return apperrors.Internal("failed to delete project", err)
	}

	s.logger.Info("project deleted",
		zap.Uint("project_id", projectID),
		zap.Uint("deleted_by", requesterID))

	return nil
}

// ProjectActivity returns the project's activity log, newest first. Any
// member may read it.
func (s *ProjectService) ProjectActivity(ctx context.Context, projectID, requesterID uint) ([]models.ActivityLog, error) {
	requester, err := findMembership(ctx, s.db, projectID, requesterID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch membership", err)
	}

	if requester == nil {
		s.metrics.RecordPermissionDenied()
		return nil, apperrors.Forbidden("User is not a project member")
	}

	var entries []models.ActivityLog
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id desc").
		Limit(100).
		Find(&entries).Error; err != nil {
		return nil, apperrors.Internal("failed to fetch activity", err)
	}

	return entries, nil
}
