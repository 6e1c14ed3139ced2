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
	"github.com/taskdeck-dev/taskdeck/internal/permissions"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

type MembershipService struct {
	db      *gorm.DB
	logger  *zap.Logger
	metrics *metrics.Metrics
	hub     *events.Hub
}

func NewMembershipService(db *gorm.DB, logger *zap.Logger, m *metrics.Metrics, hub *events.Hub) *MembershipService {
	return &MembershipService{db: db, logger: logger, metrics: m, hub: hub}
}

// GetProjectMembers lists the project's members with their name and email.
// Any member may read the list.
func (s *MembershipService) GetProjectMembers(ctx context.Context, projectID, requesterID uint) ([]types.MemberResponse, error) {
	requester, err := findMembership(ctx, s.db, projectID, requesterID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch membership", err)
	}

	if requester == nil {
		s.metrics.RecordPermissionDenied()
		return nil, apperrors.Forbidden("User is not a project member")
	}

	var memberships []models.ProjectMembership
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("id asc").
		Find(&memberships).Error; err != nil {
		return nil, apperrors.Internal("failed to list members", err)
	}

	members := make([]types.MemberResponse, 0, len(memberships))
	for _, m := range memberships {
		members = append(members, memberResponse(m))
	}

	return members, nil
}

// AddMember creates a membership row for the target user. Project admins
// only. A concurrent duplicate add loses on the (project, user) unique
// constraint and surfaces as the same Conflict.
func (s *MembershipService) AddMember(ctx context.Context, projectID, requesterID, targetUserID uint, role string) (*types.MemberResponse, error) {
	requester, err := findMembership(ctx, s.db, projectID, requesterID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch membership", err)
	}

	if !permissions.CanManageMembers(requester) {
		s.metrics.RecordPermissionDenied()
		return nil, apperrors.Forbidden("User must be project admin")
	}

	if !types.ValidRole(role) {
		return nil, apperrors.Validation("Role must be ADMIN or USER")
	}

	var target models.User
	if err := s.db.WithContext(ctx).First(&target, targetUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Internal("failed to fetch user", err)
	}

	existing, err := findMembership(ctx, s.db, projectID, targetUserID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch membership", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("User is already a project member")
	}

	membership := models.ProjectMembership{
		ProjectID: projectID,
		UserID:    targetUserID,
		Role:      role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		return writeActivity(tx, projectID, requesterID, "member.added",
			map[string]any{"user_id": targetUserID, "role": role})
	})

	if err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.Conflict("User is already a project member")
		}
		return nil, apperrors.Internal("failed to add member", err)
	}

	s.logger.Info("member added",
		zap.Uint("project_id", projectID),
		zap.Uint("user_id", targetUserID),
		zap.String("role", role),
		zap.Uint("added_by", requesterID))

	s.hub.Publish(events.Event{
		Type:      events.MemberAdded,
		ProjectID: projectID,
		ActorID:   requesterID,
		Payload:   map[string]any{"user_id": targetUserID, "role": role},
	})

	membership.User = target
	resp := memberResponse(membership)
	return &resp, nil
}

// UpdateMemberRole changes a member's role by replacing the membership row:
// delete then recreate, in one transaction. The returned membership carries a
// new row ID. The creator check runs before the membership lookup, so a
// "demote the creator" request fails Forbidden even when other checks could
// also apply.
func (s *MembershipService) UpdateMemberRole(ctx context.Context, projectID, requesterID, targetUserID uint, newRole string) (*types.MemberResponse, error) {
	requester, err := findMembership(ctx, s.db, projectID, requesterID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch membership", err)
	}

	if !permissions.CanManageMembers(requester) {
		s.metrics.RecordPermissionDenied()
		return nil, apperrors.Forbidden("User must be project admin")
	}

	if !types.ValidRole(newRole) {
		return nil, apperrors.Validation("Role must be ADMIN or USER")
	}

	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Project not found")
		}
		return nil, apperrors.Internal("failed to fetch project", err)
	}

	if targetUserID == project.CreatedBy {
		s.metrics.RecordPermissionDenied()
		return nil, apperrors.Forbidden("Cannot change project creator role")
	}

	target, err := findMembership(ctx, s.db, projectID, targetUserID)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch membership", err)
	}
	if target == nil {
		return nil, apperrors.NotFound("User is not a project member")
	}

	if !permissions.CanUpdateMemberRole(requester, target, project.CreatedBy) {
		s.metrics.RecordPermissionDenied()
		return nil, apperrors.Forbidden("Cannot change project creator role")
	}

	replacement := models.ProjectMembership{
		ProjectID: projectID,
		UserID:    targetUserID,
		Role:      newRole,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Delete(target).Error; err != nil {
			return err
		}
		if err := tx.Create(&replacement).Error; err != nil {
			return err
		}
		return writeActivity(tx, projectID, requesterID, "member.role_updated",
			map[string]any{"user_id": targetUserID, "role": newRole})
	})

	if err != nil {
		return nil, apperrors.Internal("failed to update member role", err)
	}

	s.logger.Info("member role updated",
		zap.Uint("project_id", projectID),
		zap.Uint("user_id", targetUserID),
		zap.String("role", newRole),
		zap.Uint("updated_by", requesterID))

	s.hub.Publish(events.Event{
		Type:      events.MemberUpdated,
		ProjectID: projectID,
		ActorID:   requesterID,
		Payload:   map[string]any{"user_id": targetUserID, "role": newRole},
	})

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, targetUserID).Error; err == nil {
		replacement.User = user
	}

	resp := memberResponse(replacement)
	return &resp, nil
}

// RemoveMember deletes a membership row. Project admins only; the creator
// cannot be removed.
func (s *MembershipService) RemoveMember(ctx context.Context, projectID, requesterID, targetUserID uint) error {
	requester, err := findMembership(ctx, s.db, projectID, requesterID)
	if err != nil {
		return apperrors.Internal("failed to fetch membership", err)
	}

	if !permissions.CanManageMembers(requester) {
		s.metrics.RecordPermissionDenied()
		return apperrors.Forbidden("User must be project admin")
	}

	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Project not found")
		}
		return apperrors.Internal("failed to fetch project", err)
	}

	if targetUserID == project.CreatedBy {
		s.metrics.RecordPermissionDenied()
		return apperrors.Forbidden("Cannot remove project creator")
	}

	target, err := findMembership(ctx, s.db, projectID, targetUserID)
	if err != nil {
		return apperrors.Internal("failed to fetch membership", err)
	}
	if target == nil {
		return apperrors.NotFound("User is not a project member")
	}

	if !permissions.CanRemoveMember(requester, target, project.CreatedBy) {
		s.metrics.RecordPermissionDenied()
		return apperrors.Forbidden("Cannot remove project creator")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Delete(target).Error; err != nil {
			return err
		}
		return writeActivity(tx, projectID, requesterID, "member.removed",
			map[string]any{"user_id": targetUserID})
	})

	if err != nil {
		return apperrors.Internal("failed to remove member", err)
	}

	s.logger.Info("member removed",
		zap.Uint("project_id", projectID),
		zap.Uint("user_id", targetUserID),
		zap.Uint("removed_by", requesterID))

	s.hub.Publish(events.Event{
		Type:      events.MemberRemoved,
		ProjectID: projectID,
		ActorID:   requesterID,
		Payload:   map[string]any{"user_id": targetUserID},
	})

	return nil
}

func memberResponse(m models.ProjectMembership) types.MemberResponse {
	return types.MemberResponse{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		UserID:    m.UserID,
		Role:      m.Role,
		Name:      m.User.Name,
		Email:     m.User.Email,
		JoinedAt:  m.CreatedAt,
	}
}
