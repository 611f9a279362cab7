package dto

import (
	"time"

	"github.com/mirelhas/task-docs-api/internal/models"
)

// UserRef is the minimal user shape embedded in task responses
type UserRef struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     time.Time           `json:"dueDate"`
	AssignedTo  *UserRef            `json:"assignedTo,omitempty"`
	CreatedBy   *UserRef            `json:"createdBy,omitempty"`
	Documents   []models.Document   `json:"documents"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// TaskResponse wraps a single task in the success envelope
type TaskResponse struct {
	Success bool    `json:"success"`
	Data    TaskDTO `json:"data"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Success     bool      `json:"success"`
	Count       int       `json:"count"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
	Tasks       []TaskDTO `json:"tasks"`
}

// ToUserRef converts a User model to UserRef
func ToUserRef(user models.User) *UserRef {
	if user.ID == 0 {
		return nil
	}
	return &UserRef{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	docs := task.Documents
	if docs == nil {
		docs = []models.Document{}
	}

	return TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		AssignedTo:  ToUserRef(task.AssignedTo),
		CreatedBy:   ToUserRef(task.CreatedBy),
		Documents:   docs,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskResponse wraps a task in the success envelope
func ToTaskResponse(task models.Task) TaskResponse {
	return TaskResponse{
		Success: true,
		Data:    ToTaskDTO(task),
	}
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, currentPage, totalPages int) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Success:     true,
		Count:       len(items),
		TotalPages:  totalPages,
		CurrentPage: currentPage,
		Tasks:       items,
	}
}
