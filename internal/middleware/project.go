package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskdeck-dev/taskdeck/db"
	"github.com/taskdeck-dev/taskdeck/internal/apperrors"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/permissions"
	"github.com/taskdeck-dev/taskdeck/internal/problem"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

// ProjectID parses the :project_id route parameter.
func ProjectID(ctx *gin.Context) (uint, error) {
	raw := ctx.Param("project_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.NotFound("Project not found")
	}
	return uint(id), nil
}

// RequireProjectMember guards a route group: the authenticated user must hold
// a membership in the project named by the route. The membership is stored in
// the request context; services still re-check on mutation.
func RequireProjectMember() gin.HandlerFunc {
	return requireMembership(func(member *models.ProjectMembership) error {
		if member == nil {
			return apperrors.Forbidden("User is not a project member")
		}
		return nil
	})
}

// RequireProjectAdmin guards admin-only routes at the presentation layer.
func RequireProjectAdmin() gin.HandlerFunc {
	return requireMembership(func(member *models.ProjectMembership) error {
		if !permissions.IsProjectAdmin(member) {
			return apperrors.Forbidden("User must be project admin")
		}
		return nil
	})
}

func requireMembership(check func(*models.ProjectMembership) error) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		projectID, err := ProjectID(ctx)
		if err != nil {
			problem.Abort(ctx, err)
			return
		}

		userValue, exists := ctx.Get(types.ContextUserKey)
		if !exists {
			problem.Abort(ctx, apperrors.Unauthorized("User not authenticated"))
			return
		}
		user := userValue.(AuthenticatedUser)

		var project models.Project
		if err := db.DB.First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				problem.Abort(ctx, apperrors.NotFound("Project not found"))
			} else {
				problem.Abort(ctx, apperrors.Internal("failed to fetch project", err))
			}
			return
		}

		var membership models.ProjectMembership
		err = db.DB.Where("project_id = ? AND user_id = ?", projectID, user.ID).First(&membership).Error

		var member *models.ProjectMembership
		switch {
		case err == nil:
			member = &membership
		case errors.Is(err, gorm.ErrRecordNotFound):
			member = nil
		default:
			problem.Abort(ctx, apperrors.Internal("failed to fetch membership", err))
			return
		}

		if err := check(member); err != nil {
			problem.Abort(ctx, err)
			return
		}

		if member != nil {
			ctx.Set(types.ContextMembershipKey, *member)
		}
		ctx.Next()
	}
}
