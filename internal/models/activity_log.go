package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog records who did what inside a project. Rows are written in the
// same transaction as the mutation they describe.
type ActivityLog struct {
	gorm.Model

	ProjectID uint           `gorm:"not null;index"`
	ActorID   uint           `gorm:"not null;index"`
	Action    string         `gorm:"not null"` // "project.created", "member.added", "task.deleted", ...
	Details   datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
