package dto

import (
	"time"

	"github.com/mirelhas/task-docs-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	CreatedAt time.Time       `json:"createdAt"`
}

// UserResponse wraps a single user in the success envelope
type UserResponse struct {
	Success bool    `json:"success"`
	Data    UserDTO `json:"data"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Success     bool      `json:"success"`
	Count       int       `json:"count"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
	Users       []UserDTO `json:"users"`
}

// AuthResponse carries a bearer token alongside the authenticated user
type AuthResponse struct {
	Success bool    `json:"success"`
	Token   string  `json:"token"`
	Data    UserDTO `json:"data"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// ToUserResponse wraps a user in the success envelope
func ToUserResponse(user models.User) UserResponse {
	return UserResponse{
		Success: true,
		Data:    ToUserDTO(user),
	}
}

// ToUserListResponse converts a page of users to UserListResponse
func ToUserListResponse(users []models.User, currentPage, totalPages int) UserListResponse {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}

	return UserListResponse{
		Success:     true,
		Count:       len(items),
		TotalPages:  totalPages,
		CurrentPage: currentPage,
		Users:       items,
	}
}
