// Package permissions is the single place where the authorization rules are
// expressed as predicates. The functions are pure and total: they never touch
// the database and never return errors. Services translate a false decision
// into a typed error before any store mutation happens.
package permissions

import (
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

// IsSystemAdmin reports whether the user holds the global ADMIN role.
// The global role grants no implicit project-level powers.
func IsSystemAdmin(user *models.User) bool {
	return user != nil && user.Role == types.RoleAdmin
}

// IsProjectAdmin reports whether the membership exists and carries the
// project ADMIN role.
func IsProjectAdmin(member *models.ProjectMembership) bool {
	return member != nil && member.Role == types.RoleAdmin
}

// CanManageMembers reports whether the member may add, re-role, or remove
// other members.
func CanManageMembers(member *models.ProjectMembership) bool {
	return IsProjectAdmin(member)
}

// CanUpdateMemberRole permits a role change only for project admins, and
// never against the project creator.
func CanUpdateMemberRole(requester, target *models.ProjectMembership, projectCreatorID uint) bool {
	if !IsProjectAdmin(requester) {
		return false
	}
	return target == nil || target.UserID != projectCreatorID
}

// CanRemoveMember mirrors CanUpdateMemberRole: project admins only, and the
// creator is untouchable.
func CanRemoveMember(requester, target *models.ProjectMembership, projectCreatorID uint) bool {
	if !IsProjectAdmin(requester) {
		return false
	}
	return target == nil || target.UserID != projectCreatorID
}

// CanManageTasks reports whether the member may create, update, or delete
// tasks. Any membership suffices; there is no per-task role distinction.
func CanManageTasks(member *models.ProjectMembership) bool {
	return member != nil
}
