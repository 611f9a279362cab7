package repository

import (
	"github.com/mirelhas/task-docs-api/internal/database"
	"github.com/mirelhas/task-docs-api/internal/models"
	"github.com/mirelhas/task-docs-api/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task together with any attachment metadata
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date < ?", *filter.DueDateTo)
	}
	if filter.AssignedToID != nil {
		query = query.Where("tasks.assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.VisibleToID != nil {
		query = query.Where("tasks.assigned_to_id = ? OR tasks.created_by_id = ?",
			*filter.VisibleToID, *filter.VisibleToID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tasks.created_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	if err := listQuery.
		Preload("AssignedTo").
		Preload("CreatedBy").
		Preload("Documents").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Save persists changes to a task's scalar fields. Attachment rows are
// managed explicitly through AddDocuments/DeleteDocuments, so association
// auto-save is disabled here.
func (r *GormTaskRepository) Save(task *models.Task) error {
	return r.db.Omit("AssignedTo", "CreatedBy", "Documents").Save(task).Error
}

// Delete removes a task and its attachment metadata
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Document{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// AddDocuments appends attachment metadata rows to a task
func (r *GormTaskRepository) AddDocuments(taskID uint64, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	for i := range docs {
		docs[i].TaskID = taskID
	}

	return r.db.Create(&docs).Error
}

// DeleteDocuments removes the given attachment metadata rows from a task
func (r *GormTaskRepository) DeleteDocuments(taskID uint64, docIDs []string) error {
	if len(docIDs) == 0 {
		return nil
	}

	return r.db.Where("task_id = ? AND id IN ?", taskID, docIDs).
		Delete(&models.Document{}).Error
}
