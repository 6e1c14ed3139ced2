package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck-dev/taskdeck/internal/apperrors"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

func TestCreateProjectEstablishesCreatorMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")

	project, err := env.projects.CreateProject(ctx, CreateProjectCommand{
		Name:        "Alpha",
		Description: "first project",
		UserID:      alice.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, project.CreatedBy)

	// The creator's ADMIN membership exists as soon as the project does.
	membership, err := findMembership(ctx, env.db, project.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.Equal(t, types.RoleAdmin, membership.Role)

	// The creation is recorded in the activity log.
	var count int64
	require.NoError(t, env.db.Model(&models.ActivityLog{}).
		Where("project_id = ? AND action = ?", project.ID, "project.created").
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateProjectRequiresUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.projects.CreateProject(context.Background(), CreateProjectCommand{Name: "Alpha"})
	assertKind(t, err, apperrors.KindUnauthorized)
}

func TestCreateProjectRequiresName(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice@example.com")

	_, err := env.projects.CreateProject(context.Background(), CreateProjectCommand{UserID: alice.ID})
	assertKind(t, err, apperrors.KindValidation)
}

func TestCreateProjectDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")

	env.createProject(t, "Alpha", alice.ID)

	_, err := env.projects.CreateProject(ctx, CreateProjectCommand{Name: "Alpha", UserID: bob.ID})
	assertKind(t, err, apperrors.KindConflict)
}

func TestFindAllProjectsScopedToMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")

	alpha := env.createProject(t, "Alpha", alice.ID)
	env.createProject(t, "Beta", alice.ID)

	// Bob joins Alpha only.
	_, err := env.memberships.AddMember(ctx, alpha.ID, alice.ID, bob.ID, types.RoleUser)
	require.NoError(t, err)

	aliceProjects, err := env.projects.FindAllProjects(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, aliceProjects, 2)

	bobProjects, err := env.projects.FindAllProjects(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobProjects, 1)
	assert.Equal(t, "Alpha", bobProjects[0].Name)

	_, err = env.projects.FindAllProjects(ctx, 0)
	assertKind(t, err, apperrors.KindUnauthorized)
}

func TestUpdateProjectRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")

	alpha := env.createProject(t, "Alpha", alice.ID)
	_, err := env.memberships.AddMember(ctx, alpha.ID, alice.ID, bob.ID, types.RoleUser)
	require.NoError(t, err)

	newName := "Alpha v2"
	_, err = env.projects.UpdateProject(ctx, alpha.ID, bob.ID, UpdateProjectCommand{Name: &newName})
	assertKind(t, err, apperrors.KindForbidden)

	updated, err := env.projects.UpdateProject(ctx, alpha.ID, alice.ID, UpdateProjectCommand{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Alpha v2", updated.Name)
	assert.Equal(t, alice.ID, updated.LastUpdatedBy)
}

func TestDeleteProjectRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")

	alpha := env.createProject(t, "Alpha", alice.ID)
	_, err := env.memberships.AddMember(ctx, alpha.ID, alice.ID, bob.ID, types.RoleUser)
	require.NoError(t, err)

	err = env.projects.DeleteProject(ctx, alpha.ID, bob.ID)
	assertKind(t, err, apperrors.KindForbidden)

	require.NoError(t, env.projects.DeleteProject(ctx, alpha.ID, alice.ID))

	_, err = env.projects.FindProjectByID(ctx, alpha.ID)
	assertKind(t, err, apperrors.KindNotFound)
}

func TestProjectActivityVisibleToMembersOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	mallory := env.createUser(t, "Mallory", "mallory@example.com")

	alpha := env.createProject(t, "Alpha", alice.ID)

	entries, err := env.projects.ProjectActivity(ctx, alpha.ID, alice.ID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "project.created", entries[0].Action)

	_, err = env.projects.ProjectActivity(ctx, alpha.ID, mallory.ID)
	assertKind(t, err, apperrors.KindForbidden)
}
