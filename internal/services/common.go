package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/taskdeck-dev/taskdeck/internal/models"
)

// isDuplicateKey recognizes a unique-constraint violation from both the GORM
// error translation layer and the raw postgres driver (SQLSTATE 23505).
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// findMembership returns the membership row for (projectID, userID), or nil
// when the user is not a member.
func findMembership(ctx context.Context, db *gorm.DB, projectID, userID uint) (*models.ProjectMembership, error) {
	var membership models.ProjectMembership

	err := db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&membership).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &membership, nil
}

// writeActivity appends an activity row inside the caller's transaction.
func writeActivity(tx *gorm.DB, projectID, actorID uint, action string, details any) error {
	var payload []byte
	if details != nil {
		var err error
		payload, err = json.Marshal(details)
		if err != nil {
			return err
		}
	}

	entry := models.ActivityLog{
		ProjectID: projectID,
		ActorID:   actorID,
		Action:    action,
		Details:   payload,
	}

	return tx.Create(&entry).Error
}
