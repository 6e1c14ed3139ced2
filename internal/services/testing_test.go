package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskdeck-dev/taskdeck/internal/apperrors"
	"github.com/taskdeck-dev/taskdeck/internal/metrics"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

// testDB opens an isolated in-memory database per test with the same error
// translation the production postgres connection uses.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMembership{},
		&models.Task{},
		&models.TaskComment{},
		&models.ActivityLog{},
	))

	return db
}

type testEnv struct {
	db          *gorm.DB
	auth        *AuthService
	projects    *ProjectService
	memberships *MembershipService
	tasks       *TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	logger := zap.NewNop()
	m := metrics.New(prometheus.NewRegistry())

	return &testEnv{
		db: db,
		// Low bcrypt cost keeps the suite fast; production uses cost 12.
		auth:        NewAuthService(db, logger, m, 4),
		projects:    NewProjectService(db, logger, m),
		memberships: NewMembershipService(db, logger, m, nil),
		tasks:       NewTaskService(db, logger, m, nil),
	}
}

func (e *testEnv) createUser(t *testing.T, name, email string) *models.User {
	t.Helper()

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "not-a-real-hash",
		Role:         types.RoleUser,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createProject(t *testing.T, name string, creatorID uint) *models.Project {
	t.Helper()

	project, err := e.projects.CreateProject(context.Background(), CreateProjectCommand{
		Name:   name,
		UserID: creatorID,
	})
	require.NoError(t, err)
	return project
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperrors.KindOf(err), "unexpected error kind for: %v", err)
}
