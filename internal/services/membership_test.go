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

func TestGetProjectMembersRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	mallory := env.createUser(t, "Mallory", "mallory@example.com")

	alpha := env.createProject(t, "Alpha", alice.ID)

	members, err := env.memberships.GetProjectMembers(ctx, alpha.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	// Rows come back enriched with the member's name and email.
	assert.Equal(t, "Alice", members[0].Name)
	assert.Equal(t, "alice@example.com", members[0].Email)
	assert.Equal(t, types.RoleAdmin, members[0].Role)

	_, err = env.memberships.GetProjectMembers(ctx, alpha.ID, mallory.ID)
	assertKind(t, err, apperrors.KindForbidden)
	assert.Equal(t, "User is not a project member", err.Error())
}

func TestAddMemberRequiresProjectAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")
	carol := env.createUser(t, "Carol", "carol@example.com")

	alpha := env.createProject(t, "Alpha", alice.ID)

	_, err := env.memberships.AddMember(ctx, alpha.ID, alice.ID, bob.ID, types.RoleUser)
	require.NoError(t, err)

	// Bob holds the USER role, so he cannot add members.
	_, err = env.memberships.AddMember(ctx, alpha.ID, bob.ID, carol.ID, types.RoleUser)
	assertKind(t, err, apperrors.KindForbidden)
	assert.Equal(t, "User must be project admin", err.Error())

	// Neither can a complete outsider.
	_, err = env.memberships.AddMember(ctx, alpha.ID, carol.ID, carol.ID, types.RoleUser)
	assertKind(t, err, apperrors.KindForbidden)
}

func TestAddMemberTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")

	alpha := env.createProject(t, "Alpha", alice.ID)

	member, err := env.memberships.AddMember(ctx, alpha.ID, alice.ID, bob.ID, types.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "Bob", member.Name)

	_, err = env.memberships.AddMember(ctx, alpha.ID, alice.ID, bob.ID, types.RoleAdmin)
	assertKind(t, err, apperrors.KindConflict)
}

func TestAddMemberUniqueConstraintBreaksTies(t *testing.T) {
	env := newTestEnv(t)

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")
	alpha := env.createProject(t, "Alpha", alice.ID)

	// Simulate the loser of a concurrent double-add: the row appears after
	// the service's existence check would have passed.
	require.NoError(t, env.db.Create(&models.ProjectMembership{
		ProjectID: alpha.ID,
		UserID:    bob.ID,
		Role:      types.RoleUser,
	}).Error)

	err := env.db.Create(&models.ProjectMembership{
		ProjectID: alpha.ID,
		UserID:    bob.ID,
		Role:      types.RoleAdmin,
	}).Error
	require.Error(t, err)
	assert.True(t, isDuplicateKey(err))
}

func TestAddMemberUnknownUserOrRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	alpha := env.createProject(t, "Alpha", alice.ID)

	_, err := env.memberships.AddMember(ctx, alpha.ID, alice.ID, 9999, types.RoleUser)
	assertKind(t, err, apperrors.KindNotFound)

	bob := env.createUser(t, "Bob", "bob@example.com")
	_, err = env.memberships.AddMember(ctx, alpha.ID, alice.ID, bob.ID, "OWNER")
	assertKind(t, err, apperrors.KindValidation)
}

func TestUpdateMemberRoleReplacesRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")
	alpha := env.createProject(t, "Alpha", alice.ID)

	original, err := env.memberships.AddMember(ctx, alpha.ID, alice.ID, bob.ID, types.RoleUser)
	require.NoError(t, err)

	updated, err := env.memberships.UpdateMemberRole(ctx, alpha.ID, alice.ID, bob.ID, types.RoleAdmin)
	require.NoError(t, err)

	// Delete + recreate: the new role arrives under a new row id.
	assert.Equal(t, types.RoleAdmin, updated.Role)
	assert.NotEqual(t, original.ID, updated.ID)

	// Exactly one membership row remains for (project, user).
	current, err := findMembership(ctx, env.db, alpha.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, updated.ID, current.ID)
	assert.Equal(t, types.RoleAdmin, current.Role)

	var count int64
	require.NoError(t, env.db.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ?", alpha.ID, bob.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateMemberRoleCreatorUntouchable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")
	alpha := env.createProject(t, "Alpha", alice.ID)

	// Bob becomes a second project admin.
	_, err := env.memberships.AddMember(ctx, alpha.ID, alice.ID, bob.ID, types.RoleAdmin)
	require.NoError(t, err)

	// No admin may demote the creator, including the creator themselves.
	for _, requesterID := range []uint{alice.ID, bob.ID} {
		_, err := env.memberships.UpdateMemberRole(ctx, alpha.ID, requesterID, alice.ID, types.RoleUser)
		assertKind(t, err, apperrors.KindForbidden)
		assert.Equal(t, "Cannot change project creator role", err.Error())
	}
}

func TestUpdateMemberRoleNonMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	carol := env.createUser(t, "Carol", "carol@example.com")
	alpha := env.createProject(t, "Alpha", alice.ID)

	_, err := env.memberships.UpdateMemberRole(ctx, alpha.ID, alice.ID, carol.ID, types.RoleAdmin)
	assertKind(t, err, apperrors.KindNotFound)
	assert.Equal(t, "User is not a project member", err.Error())
}

func TestRemoveMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")
	alpha := env.createProject(t, "Alpha", alice.ID)

	_, err := env.memberships.AddMember(ctx, alpha.ID, alice.ID, bob.ID, types.RoleUser)
	require.NoError(t, err)

	// Bob (role USER) cannot remove anyone.
	err = env.memberships.RemoveMember(ctx, alpha.ID, bob.ID, alice.ID)
	assertKind(t, err, apperrors.KindForbidden)
	assert.Equal(t, "User must be project admin", err.Error())

	// Alice cannot remove herself: she is the creator, admin or not.
	err = env.memberships.RemoveMember(ctx, alpha.ID, alice.ID, alice.ID)
	assertKind(t, err, apperrors.KindForbidden)
	assert.Equal(t, "Cannot remove project creator", err.Error())

	// Removing Bob works and leaves no membership row behind.
	require.NoError(t, env.memberships.RemoveMember(ctx, alpha.ID, alice.ID, bob.ID))

	member, err := findMembership(ctx, env.db, alpha.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, member)

	// Removing him again reports the missing membership.
	err = env.memberships.RemoveMember(ctx, alpha.ID, alice.ID, bob.ID)
	assertKind(t, err, apperrors.KindNotFound)
}
