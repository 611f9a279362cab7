package repository

import (
	"time"

	"github.com/mirelhas/task-docs-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task together with any attachment metadata
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Save persists changes to a task's scalar fields
	Save(task *models.Task) error

	// Delete removes a task and its attachment metadata
	Delete(id uint64) error

	// AddDocuments appends attachment metadata rows to a task
	AddDocuments(taskID uint64, docs []models.Document) error

	// DeleteDocuments removes the given attachment metadata rows from a task
	DeleteDocuments(taskID uint64, docIDs []string) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDateFrom  *time.Time
	DueDateTo    *time.Time
	AssignedToID *uint64

	// VisibleToID restricts results to tasks where the user is the assignee
	// or the creator. Nil means no restriction (admin).
	VisibleToID *uint64

	Page     int
	PageSize int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// List retrieves users with pagination, newest first
	List(page, pageSize int) ([]models.User, int64, error)

	// Save persists changes to a user
	Save(user *models.User) error

	// Delete removes a user
	Delete(id uint64) error

	// CountTasksAssignedTo counts tasks currently assigned to a user
	CountTasksAssignedTo(userID uint64) (int64, error)
}
