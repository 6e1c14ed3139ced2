package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

func membership(userID uint, role string) *models.ProjectMembership {
	return &models.ProjectMembership{UserID: userID, ProjectID: 1, Role: role}
}

func TestIsSystemAdmin(t *testing.T) {
	assert.True(t, IsSystemAdmin(&models.User{Role: types.RoleAdmin}))
	assert.False(t, IsSystemAdmin(&models.User{Role: types.RoleUser}))
	assert.False(t, IsSystemAdmin(nil))
}

func TestIsProjectAdmin(t *testing.T) {
	assert.True(t, IsProjectAdmin(membership(1, types.RoleAdmin)))
	assert.False(t, IsProjectAdmin(membership(1, types.RoleUser)))
	assert.False(t, IsProjectAdmin(nil))
}

func TestCanManageMembers(t *testing.T) {
	assert.True(t, CanManageMembers(membership(1, types.RoleAdmin)))
	assert.False(t, CanManageMembers(membership(1, types.RoleUser)))
	assert.False(t, CanManageMembers(nil))
}

func TestCanUpdateMemberRole(t *testing.T) {
	const creatorID = 7

	cases := []struct {
		name      string
		requester *models.ProjectMembership
		target    *models.ProjectMembership
		want      bool
	}{
		{"admin against regular member", membership(1, types.RoleAdmin), membership(2, types.RoleUser), true},
		{"admin against another admin", membership(1, types.RoleAdmin), membership(3, types.RoleAdmin), true},
		{"admin against creator", membership(1, types.RoleAdmin), membership(creatorID, types.RoleAdmin), false},
		{"creator against themselves", membership(creatorID, types.RoleAdmin), membership(creatorID, types.RoleAdmin), false},
		{"regular member against anyone", membership(1, types.RoleUser), membership(2, types.RoleUser), false},
		{"non-member requester", nil, membership(2, types.RoleUser), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanUpdateMemberRole(tc.requester, tc.target, creatorID))
		})
	}
}

func TestCanRemoveMember(t *testing.T) {
	const creatorID = 7

	// The creator is untouchable regardless of which admin asks.
	for _, requesterID := range []uint{1, 2, 99, creatorID} {
		requester := membership(requesterID, types.RoleAdmin)
		assert.False(t, CanRemoveMember(requester, membership(creatorID, types.RoleAdmin), creatorID),
			"requester %d must not remove the creator", requesterID)
	}

	assert.True(t, CanRemoveMember(membership(1, types.RoleAdmin), membership(2, types.RoleUser), creatorID))
	assert.False(t, CanRemoveMember(membership(1, types.RoleUser), membership(2, types.RoleUser), creatorID))
	assert.False(t, CanRemoveMember(nil, membership(2, types.RoleUser), creatorID))
}

func TestCanManageTasks(t *testing.T) {
	assert.True(t, CanManageTasks(membership(1, types.RoleUser)))
	assert.True(t, CanManageTasks(membership(1, types.RoleAdmin)))
	assert.False(t, CanManageTasks(nil))
}

func TestGlobalRoleIndependentOfProjectRole(t *testing.T) {
	// A global ADMIN with no membership gets nothing at the project level.
	sysAdmin := &models.User{Role: types.RoleAdmin}
	assert.True(t, IsSystemAdmin(sysAdmin))
	assert.False(t, CanManageMembers(nil))
	assert.False(t, CanManageTasks(nil))

	// A global USER may still be a project ADMIN.
	assert.True(t, IsProjectAdmin(membership(1, types.RoleAdmin)))
}
