package models

import "gorm.io/gorm"

type Task struct {
	gorm.Model

	ProjectID     uint   `gorm:"not null;index"`
	Title         string `gorm:"not null"`
	Description   string
	Summary       *string
	CreatedBy     uint `gorm:"not null"`
	LastUpdatedBy uint

	// Relationships
	Project  Project       `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Comments []TaskComment `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
