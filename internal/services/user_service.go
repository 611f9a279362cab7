package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mirelhas/task-docs-api/internal/models"
	"github.com/mirelhas/task-docs-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserHasAssignedTasks     = errors.New("cannot delete user with assigned tasks, reassign tasks first")
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
)

// UserService handles roster management and profile updates.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// ListUsers returns a page of users, newest first
func (s *UserService) ListUsers(page, pageSize int) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateUserInput represents input for creating a roster user
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     models.UserRole
}

// CreateUser creates a user with an explicit role (admin operation)
func (s *UserService) CreateUser(input CreateUserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}

	user := &models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// UpdateUserInput represents a partial roster update. Empty fields are
// left unchanged.
type UpdateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     models.UserRole
}

// UpdateUser applies a partial update to a roster user (admin operation)
func (s *UserService) UpdateUser(id uint64, input UpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.Name != "" {
		user.Name = strings.TrimSpace(input.Name)
	}
	if input.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(input.Email))
	}
	if input.Role != "" {
		user.Role = input.Role
	}
	if input.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, ErrFailedToHashPassword
		}
		user.PasswordHash = string(hashedPassword)
	}

	if err := s.userRepo.Save(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteUser removes a user unless tasks are still assigned to them
func (s *UserService) DeleteUser(id uint64) error {
	if _, err := s.userRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	assigned, err := s.userRepo.CountTasksAssignedTo(id)
	if err != nil {
		return fmt.Errorf("failed to count assigned tasks: %w", err)
	}
	if assigned > 0 {
		return ErrUserHasAssignedTasks
	}

	if err := s.userRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// UpdateProfileInput represents a self-service profile update. Changing the
// password requires the current one.
type UpdateProfileInput struct {
	Name            string
	Email           string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile lets an authenticated user update their own profile
func (s *UserService) UpdateProfile(userID uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.Name != "" {
		user.Name = strings.TrimSpace(input.Name)
	}
	if input.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(input.Email))
	}

	if input.CurrentPassword != "" && input.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
			return nil, ErrCurrentPasswordIncorrect
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, ErrFailedToHashPassword
		}
		user.PasswordHash = string(hashedPassword)
	}

	if err := s.userRepo.Save(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}
