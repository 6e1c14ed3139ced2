package models

import "gorm.io/gorm"

type TaskComment struct {
	gorm.Model

	TaskID        uint   `gorm:"not null;index"`
	Comment       string `gorm:"not null"`
	CreatedBy     uint   `gorm:"not null"`
	LastUpdatedBy uint

	// Relationships
	Task Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
