package db

import (
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/types"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDatabase(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})

	if err != nil {
		return err
	}

	return nil
}

func MigrateDatabase() error {
	models := []interface{}{
		&models.User{},
		&models.Project{},
		&models.ProjectMembership{},
		&models.Task{},
		&models.TaskComment{},
		&models.ActivityLog{},
	}

	migrator := DB.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			if err := DB.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}

// EnsureSystemAdmin promotes the earliest registered user to the global
// ADMIN role when no admin exists yet, and backfills the implicit creator
// membership for projects created before that invariant was enforced
// transactionally.
func EnsureSystemAdmin() error {
	var adminCount int64
	if err := DB.Model(&models.User{}).Where("role = ?", types.RoleAdmin).Count(&adminCount).Error; err != nil {
		return err
	}

	if adminCount == 0 {
		var first models.User
		err := DB.Order("id asc").First(&first).Error
		if err == nil {
			if err := DB.Model(&first).Update("role", types.RoleAdmin).Error; err != nil {
				return err
			}
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
	}

	return backfillCreatorMemberships()
}

func backfillCreatorMemberships() error {
	var projects []models.Project
	if err := DB.Find(&projects).Error; err != nil {
		return err
	}

	for _, project := range projects {
		var count int64
		err := DB.Model(&models.ProjectMembership{}).
			Where("project_id = ? AND user_id = ?", project.ID, project.CreatedBy).
			Count(&count).Error
		if err != nil {
			return err
		}

		if count == 0 {
			membership := models.ProjectMembership{
				ProjectID: project.ID,
				UserID:    project.CreatedBy,
				Role:      types.RoleAdmin,
			}
			if err := DB.Create(&membership).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
