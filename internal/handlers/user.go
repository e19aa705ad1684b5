package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dranzer2021/task-management-system/internal/dto"
	apierrors "github.com/dranzer2021/task-management-system/internal/errors"
	"github.com/dranzer2021/task-management-system/internal/middleware"
	"github.com/dranzer2021/task-management-system/internal/models"
	"github.com/dranzer2021/task-management-system/internal/repository"
)

// UserHandler serves self-service profile routes. Access is enforced by
// RequireSelfOrAdmin, which also loads the target user into the context.
type UserHandler struct {
	userRepo repository.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userRepo repository.UserRepository) *UserHandler {
	return &UserHandler{
		userRepo: userRepo,
	}
}

// GetUser returns a user profile.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, ok := middleware.TargetUserFromContext(c)
	if !ok {
		apierrors.InternalError(c, "User not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(user))
}

// UpdateUser applies a partial update to a profile. Role changes are
// admin-only; everything else is self-service.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	user, ok := middleware.TargetUserFromContext(c)
	if !ok {
		apierrors.InternalError(c, "User not found in context")
		return
	}

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if v, ok := raw["firstName"].(string); ok && strings.TrimSpace(v) != "" {
		user.FirstName = strings.TrimSpace(v)
	}
	if v, ok := raw["lastName"].(string); ok && strings.TrimSpace(v) != "" {
		user.LastName = strings.TrimSpace(v)
	}
	if v, ok := raw["email"].(string); ok && strings.TrimSpace(v) != "" {
		user.Email = strings.ToLower(strings.TrimSpace(v))
	}

	if v, ok := raw["role"].(string); ok {
		callerRole, _ := middleware.GetUserRole(c)
		if callerRole != models.RoleAdmin {
			apierrors.Forbidden(c, "Only admins can change roles")
			return
		}
		role := models.Role(v)
		if role != models.RoleUser && role != models.RoleAdmin {
			apierrors.BadRequestWithDetails(c, "missing or invalid fields: role", []string{"role"})
			return
		}
		user.Role = role
	}

	if err := h.userRepo.Update(&user); err != nil {
		if isDuplicateEmail(err) {
			apierrors.Conflict(c, "email already registered")
			return
		}
		apierrors.InternalError(c, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(user))
}

func isDuplicateEmail(err error) bool {
	// MySQL duplicate-key errors surface as ER_DUP_ENTRY text; SQLite (tests)
	// reports a UNIQUE constraint failure.
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint")
}
