package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/mirelhas/task-docs-api/internal/models"
	"github.com/mirelhas/task-docs-api/internal/repository"
	"github.com/mirelhas/task-docs-api/internal/storage"
	"github.com/mirelhas/task-docs-api/internal/uploads"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrAssigneeNotFound     = errors.New("assigned user not found")
	ErrTaskPermissionDenied = errors.New("not authorized to access this task")
	ErrNotTaskCreator       = errors.New("not authorized to delete this task")
)

// taskPreloads are the relations loaded for task responses.
var taskPreloads = []string{"AssignedTo", "CreatedBy", "Documents"}

// CanAccess is the authorization predicate shared by all task operations:
// admins, the assignee, and the creator may access a task.
func CanAccess(user *models.User, task *models.Task) bool {
	return user.IsAdmin() || task.AssignedToID == user.ID || task.CreatedByID == user.ID
}

// TaskService sequences task record and blob mutations so the two stores
// stay consistent: blobs are written before the record that references them,
// and removed blobs are deleted only after the record no longer points at
// them.
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	blobs    storage.BlobStore
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, blobs storage.BlobStore) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		blobs:    blobs,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title        string
	Description  string
	Status       models.TaskStatus
	Priority     models.TaskPriority
	DueDate      time.Time
	AssignedToID uint64
	CreatorID    uint64
	Files        []*multipart.FileHeader
}

// UpdateTaskInput represents input for updating a task. Empty string fields
// and nil pointers leave the existing values untouched.
type UpdateTaskInput struct {
	Title        string
	Description  string
	Status       models.TaskStatus
	Priority     models.TaskPriority
	DueDate      *time.Time
	AssignedToID *uint64

	// Retained lists the ids of existing attachments to keep. It only
	// applies when RetainedPresent is true; an absent field preserves all
	// existing attachments, while a present-but-empty set removes them all.
	Retained        map[string]struct{}
	RetainedPresent bool

	Files []*multipart.FileHeader
}

// ListTasks returns tasks visible to the actor with the given filters.
// Admins see every task; other users only see tasks where they are the
// assignee or the creator.
func (s *TaskService) ListTasks(actor *models.User, filter repository.TaskFilter) ([]models.Task, int64, error) {
	if !actor.IsAdmin() {
		filter.VisibleToID = &actor.ID
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task if the actor may access it
func (s *TaskService) GetTask(taskID uint64, actor *models.User) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !CanAccess(actor, task) {
		return nil, ErrTaskPermissionDenied
	}

	return task, nil
}

// CreateTask validates any attached files, writes their blobs, and creates
// the task record last so a crash can orphan files but never produce a
// record referencing blobs that were never written.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if _, err := s.userRepo.FindByID(input.AssignedToID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to resolve assignee: %w", err)
	}

	if err := uploads.ValidateFiles(input.Files, 0); err != nil {
		return nil, err
	}

	docs, err := s.storeUploads(input.Files)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:        input.Title,
		Description:  input.Description,
		Status:       input.Status,
		Priority:     input.Priority,
		DueDate:      input.DueDate,
		AssignedToID: input.AssignedToID,
		CreatedByID:  input.CreatorID,
		Documents:    docs,
	}

	if err := s.taskRepo.Create(task); err != nil {
		s.removeBlobs(docs)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// UpdateTask applies a partial update and reconciles the attachment set.
func (s *TaskService) UpdateTask(taskID uint64, actor *models.User, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Documents")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !CanAccess(actor, task) {
		return nil, ErrTaskPermissionDenied
	}

	if input.AssignedToID != nil {
		if _, err := s.userRepo.FindByID(*input.AssignedToID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAssigneeNotFound
			}
			return nil, fmt.Errorf("failed to resolve assignee: %w", err)
		}
		task.AssignedToID = *input.AssignedToID
	}

	if input.Title != "" {
		task.Title = input.Title
	}
	if input.Description != "" {
		task.Description = input.Description
	}
	if input.Status != "" {
		task.Status = input.Status
	}
	if input.Priority != "" {
		task.Priority = input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	}

	retained, removed := splitDocuments(task.Documents, input.Retained, input.RetainedPresent)

	if err := uploads.ValidateFiles(input.Files, len(retained)); err != nil {
		return nil, err
	}

	newDocs, err := s.storeUploads(input.Files)
	if err != nil {
		return nil, err
	}

	if len(removed) > 0 {
		ids := make([]string, len(removed))
		for i, doc := range removed {
			ids[i] = doc.ID
		}
		if err := s.taskRepo.DeleteDocuments(task.ID, ids); err != nil {
			s.removeBlobs(newDocs)
			return nil, fmt.Errorf("failed to remove documents: %w", err)
		}
	}

	if err := s.taskRepo.AddDocuments(task.ID, newDocs); err != nil {
		s.removeBlobs(newDocs)
		return nil, fmt.Errorf("failed to add documents: %w", err)
	}

	if err := s.taskRepo.Save(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	// The record no longer references the removed attachments; their blobs
	// can go. A blob already missing from disk is not an error.
	s.removeBlobs(removed)

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// DeleteTask deletes a task and all of its attachment blobs. Only the
// creator or an admin may delete. Blobs are removed before the record so a
// crash leaves at most orphan files, never a record pointing at blobs that
// silently vanished.
func (s *TaskService) DeleteTask(taskID uint64, actor *models.User) error {
	task, err := s.taskRepo.FindByID(taskID, "Documents")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if !actor.IsAdmin() && task.CreatedByID != actor.ID {
		return ErrNotTaskCreator
	}

	s.removeBlobs(task.Documents)

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// storeUploads writes every file to blob storage, rolling back the whole
// batch on the first failure.
func (s *TaskService) storeUploads(files []*multipart.FileHeader) ([]models.Document, error) {
	docs := make([]models.Document, 0, len(files))

	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			s.removeBlobs(docs)
			return nil, fmt.Errorf("failed to open upload: %w", err)
		}

		key, size, err := s.blobs.Store(src, file.Filename)
		src.Close()
		if err != nil {
			s.removeBlobs(docs)
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}

		docs = append(docs, models.Document{
			FileName:     key,
			OriginalName: file.Filename,
			Size:         size,
			ContentType:  file.Header.Get("Content-Type"),
			UploadedAt:   time.Now(),
		})
	}

	return docs, nil
}

// removeBlobs deletes blobs best-effort; a missing file is not an error and
// other failures must not escalate past the record mutation they follow.
func (s *TaskService) removeBlobs(docs []models.Document) {
	for _, doc := range docs {
		_ = s.blobs.Remove(doc.FileName)
	}
}

// splitDocuments partitions existing attachments into retained and removed
// per the normalized retained-id set.
func splitDocuments(docs []models.Document, retained map[string]struct{}, present bool) (kept, removed []models.Document) {
	if !present {
		return docs, nil
	}

	for _, doc := range docs {
		if _, ok := retained[doc.ID]; ok {
			kept = append(kept, doc)
		} else {
			removed = append(removed, doc)
		}
	}

	return kept, removed
}
