package models

import "gorm.io/gorm"

type Project struct {
	gorm.Model

	Name          string `gorm:"uniqueIndex;not null"`
	Description   string
	CreatedBy     uint `gorm:"not null;index"`
	LastUpdatedBy uint

	// Relationships
	Creator            User                `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ProjectMemberships []ProjectMembership `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks              []Task              `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ActivityLogs       []ActivityLog       `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
