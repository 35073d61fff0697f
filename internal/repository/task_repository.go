package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/projectly-api/internal/models"
)

// ErrInvalidGroupColumn is returned when a group-by column is not allowed.
var ErrInvalidGroupColumn = errors.New("repository: invalid group column")

var taskGroupColumns = map[string]bool{
	"status":         true,
	"priority":       true,
	"project_id":     true,
	"assigned_to_id": true,
}

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) filtered(ctx context.Context, filter TaskFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.AssignedToID != nil {
		query = query.Where("tasks.assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *filter.ProjectID)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	return query
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering, newest first
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.filtered(ctx, filter).
		Order("tasks.created_at DESC").
		Order("tasks.id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update applies changes and returns the updated task
func (r *GormTaskRepository) Update(ctx context.Context, id uint64, changes map[string]interface{}) (*models.Task, error) {
	if len(changes) > 0 {
		if err := r.db.WithContext(ctx).Model(&models.Task{ID: id}).Updates(changes).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// UpdateIfStatus is a compare-and-set on the status column.
func (r *GormTaskRepository) UpdateIfStatus(ctx context.Context, id uint64, expected models.TaskStatus, changes map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(changes)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete hard deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountGroupedBy counts tasks matching filter per value of column
func (r *GormTaskRepository) CountGroupedBy(ctx context.Context, column string, filter TaskFilter) ([]Group, error) {
	if !taskGroupColumns[column] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGroupColumn, column)
	}

	col := "tasks." + column
	groups := []Group{}
	err := r.filtered(ctx, filter).
		Select(col + " AS group_key, COUNT(*) AS group_count").
		Group(col).
		Order(col).
		Scan(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// Count counts tasks matching filter
func (r *GormTaskRepository) Count(ctx context.Context, filter TaskFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}
