package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirelhas/task-docs-api/internal/auth"
	"github.com/mirelhas/task-docs-api/internal/constants"
	"github.com/mirelhas/task-docs-api/internal/dto"
	apierrors "github.com/mirelhas/task-docs-api/internal/errors"
	"github.com/mirelhas/task-docs-api/internal/middleware"
	"github.com/mirelhas/task-docs-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	jwtService  *auth.JWTService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtService:  jwtService,
	}
}

// Register creates a new user and returns a bearer token.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Please provide name, email and password")
		return
	}

	user, err := h.authService.Register(services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{
		Success: true,
		Token:   token,
		Data:    dto.ToUserDTO(*user),
	})
}

// Login authenticates a user and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Please provide email and password")
		return
	}

	user, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Success: true,
		Token:   token,
		Data:    dto.ToUserDTO(*user),
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(*user))
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.BadRequest(c, "User already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, "Invalid credentials")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	default:
		apierrors.InternalError(c, err)
	}
}
