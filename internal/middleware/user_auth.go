package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dranzer2021/task-management-system/internal/constants"
	"github.com/dranzer2021/task-management-system/internal/database"
	apierrors "github.com/dranzer2021/task-management-system/internal/errors"
	"github.com/dranzer2021/task-management-system/internal/models"
)

// RequireSelfOrAdmin guards user-profile routes. The target user is looked
// up first (absent is 404); then the caller must be that user or an admin.
func RequireSelfOrAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		targetIDStr := c.Param("id")
		targetID, err := strconv.ParseUint(targetIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid user ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		role, _ := GetUserRole(c)

		var target models.User
		if err := database.GetDB().First(&target, targetID).Error; err != nil {
			apierrors.NotFound(c, "User not found")
			c.Abort()
			return
		}

		if role != models.RoleAdmin && userID != target.ID {
			apierrors.Forbidden(c, "Not authorized to modify this resource")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUser, target)
		c.Next()
	}
}

// TargetUserFromContext retrieves the user stored by RequireSelfOrAdmin.
func TargetUserFromContext(c *gin.Context) (models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return models.User{}, false
	}

	user, ok := value.(models.User)
	return user, ok
}
