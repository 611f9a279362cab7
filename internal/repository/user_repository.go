package repository

import (
	"github.com/mirelhas/task-docs-api/internal/database"
	"github.com/mirelhas/task-docs-api/internal/models"
	"github.com/mirelhas/task-docs-api/internal/utils"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List retrieves users with pagination, newest first
func (r *GormUserRepository) List(page, pageSize int) ([]models.User, int64, error) {
	var users []models.User

	query := r.db.Model(&models.User{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC")
	if page > 0 && pageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   page,
			Limit:  pageSize,
			Offset: (page - 1) * pageSize,
		}))
	}

	if err := listQuery.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Save persists changes to a user
func (r *GormUserRepository) Save(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete removes a user
func (r *GormUserRepository) Delete(id uint64) error {
	return r.db.Delete(&models.User{}, id).Error
}

// CountTasksAssignedTo counts tasks currently assigned to a user
func (r *GormUserRepository) CountTasksAssignedTo(userID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("assigned_to_id = ?", userID).
		Count(&count).Error
	return count, err
}
