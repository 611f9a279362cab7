package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mirelhas/task-docs-api/internal/dto"
	apierrors "github.com/mirelhas/task-docs-api/internal/errors"
	"github.com/mirelhas/task-docs-api/internal/middleware"
	"github.com/mirelhas/task-docs-api/internal/models"
	"github.com/mirelhas/task-docs-api/internal/services"
	"github.com/mirelhas/task-docs-api/internal/utils"
)

// UserHandler exposes roster management (admin only) and self-service
// profile updates.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers returns a page of users
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	users, total, err := h.userService.ListUsers(params.Page, params.Limit)
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users, params.Page, utils.TotalPages(total, params.Limit)))
}

// GetUser returns a single user
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	user, err := h.userService.GetUser(id)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(*user))
}

// CreateUser creates a roster user with an explicit role
func (h *UserHandler) CreateUser(c *gin.Context) {
	type CreateUserRequest struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role" binding:"omitempty,oneof=user admin"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Please provide name, email and password")
		return
	}

	user, err := h.userService.CreateUser(services.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.UserRole(req.Role),
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserResponse(*user))
}

// UpdateUser applies a partial update to a roster user
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	type UpdateUserRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email" binding:"omitempty,email"`
		Password string `json:"password"`
		Role     string `json:"role" binding:"omitempty,oneof=user admin"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateUser(id, services.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.UserRole(req.Role),
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(*user))
}

// DeleteUser removes a user unless tasks are still assigned to them
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.userService.DeleteUser(id); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{},
	})
}

// UpdateProfile lets the authenticated user update their own details
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type UpdateProfileRequest struct {
		Name            string `json:"name"`
		Email           string `json:"email" binding:"omitempty,email"`
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.userService.UpdateProfile(user.ID, services.UpdateProfileInput{
		Name:            req.Name,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(*updated))
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.BadRequest(c, "User already exists")
	case errors.Is(err, services.ErrUserHasAssignedTasks):
		apierrors.BadRequest(c, "Cannot delete user with assigned tasks. Reassign tasks first.")
	case errors.Is(err, services.ErrCurrentPasswordIncorrect):
		apierrors.Unauthorized(c, "Current password is incorrect")
	case errors.Is(err, services.ErrFailedToHashPassword):
		apierrors.InternalError(c, err)
	default:
		apierrors.InternalError(c, err)
	}
}
