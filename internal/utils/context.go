package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/taskdeck-dev/taskdeck/internal/middleware"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, fmt.Errorf("User not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, fmt.Errorf("Invalid user type in context")
	}

	return authenticatedUser, nil
}

func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	return user.ID, nil
}

// GetMembership returns the membership stored by the project route guard, or
// nil when the guard did not run or the user is not a member.
func GetMembership(ctx *gin.Context) *models.ProjectMembership {
	value, exists := ctx.Get(types.ContextMembershipKey)
	if !exists {
		return nil
	}

	membership, ok := value.(models.ProjectMembership)
	if !ok {
		return nil
	}

	return &membership
}
