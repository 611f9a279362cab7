package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mirelhas/task-docs-api/internal/constants"
	"github.com/mirelhas/task-docs-api/internal/database"
	apierrors "github.com/mirelhas/task-docs-api/internal/errors"
	"github.com/mirelhas/task-docs-api/internal/models"
	"github.com/mirelhas/task-docs-api/internal/services"
	"gorm.io/gorm"
)

// RequireTaskAccess loads the task addressed by the :id parameter and
// rejects users outside the admin/assignee/creator predicate. The loaded
// task is stored in the context for downstream handlers.
func RequireTaskAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		user, exists := GetCurrentUser(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var task models.Task
		if err := database.GetDB().
			Preload("AssignedTo").
			Preload("CreatedBy").
			Preload("Documents").
			First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Task not found")
			} else {
				apierrors.InternalError(c, err)
			}
			c.Abort()
			return
		}

		if !services.CanAccess(user, &task) {
			apierrors.Forbidden(c, "Not authorized to access this task")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, &task)
		c.Next()
	}
}

// GetContextTask retrieves the task loaded by RequireTaskAccess
func GetContextTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}

	task, ok := value.(*models.Task)
	if !ok {
		return nil, false
	}
	return task, true
}
