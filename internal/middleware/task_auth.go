package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dranzer2021/task-management-system/internal/constants"
	"github.com/dranzer2021/task-management-system/internal/database"
	apierrors "github.com/dranzer2021/task-management-system/internal/errors"
	"github.com/dranzer2021/task-management-system/internal/models"
)

// RequireTaskOwnership guards task mutations. The task is looked up first:
// a truly absent task is 404, a task the caller may not touch is 403.
// Admins pass unconditionally; otherwise the caller must be the task's
// creator or assignee. The fetched task is stored in the context.
func RequireTaskOwnership() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskIDStr := c.Param("id")
		taskID, err := strconv.ParseUint(taskIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
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

		var task models.Task
		if err := database.GetDB().
			Preload("Creator").
			Preload("Assignee").
			Preload("Attachments").
			First(&task, taskID).Error; err != nil {
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		caller := models.User{ID: userID, Role: role}
		if !task.OwnedBy(&caller) {
			apierrors.Forbidden(c, "Not authorized to modify this resource")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// TaskFromContext retrieves the task stored by RequireTaskOwnership.
func TaskFromContext(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}

	task, ok := value.(models.Task)
	return task, ok
}
