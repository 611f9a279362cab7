package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

type Task struct {
	ID           uint64       `gorm:"primarykey" json:"id"`
	Title        string       `gorm:"not null" json:"title"`
	Description  string       `gorm:"type:text;not null" json:"description"`
	Status       TaskStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Priority     TaskPriority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	DueDate      time.Time    `gorm:"not null" json:"dueDate"`
	AssignedToID uint64       `gorm:"not null;index" json:"assignedToId"`
	CreatedByID  uint64       `gorm:"not null;index" json:"createdById"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`

	// Relations
	AssignedTo User       `gorm:"foreignKey:AssignedToID" json:"assignedTo,omitempty"`
	CreatedBy  User       `gorm:"foreignKey:CreatedByID" json:"createdBy,omitempty"`
	Documents  []Document `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"documents"`
}
