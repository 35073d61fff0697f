package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/projectly-api/internal/models"
)

// completedStatuses are the task statuses counted as finished work.
var completedStatuses = []models.TaskStatus{models.TaskStatusResolved, models.TaskStatusVerified}

// GormAnalyticsRepository is a GORM implementation of AnalyticsRepository
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new AnalyticsRepository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

// TasksPerProject groups tasks by project. Tasks whose project was deleted
// are still counted, with an empty title.
func (r *GormAnalyticsRepository) TasksPerProject(ctx context.Context) ([]ProjectTaskCount, error) {
	rows := []ProjectTaskCount{}
	err := r.db.WithContext(ctx).
		Table("tasks").
		Select("tasks.project_id AS project_id, COALESCE(projects.title, '') AS title, COUNT(*) AS count").
		Joins("LEFT JOIN projects ON projects.id = tasks.project_id").
		Group("tasks.project_id, projects.title").
		Order("tasks.project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TicketsPerUser counts resolved and verified tasks per assignee. Users
// without such tasks, and assignees that no longer exist, are omitted.
func (r *GormAnalyticsRepository) TicketsPerUser(ctx context.Context) ([]UserTicketCount, error) {
	rows := []UserTicketCount{}
	err := r.db.WithContext(ctx).
		Table("tasks").
		Select("users.id AS user_id, users.name AS name, COUNT(*) AS count").
		Joins("JOIN users ON users.id = tasks.assigned_to_id").
		Where("tasks.status IN ?", completedStatuses).
		Group("users.id, users.name").
		Order("users.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ModeratorPerformance expands every project with its tasks. A project
// without tasks contributes one placeholder row, which counts toward
// total_tasks but never toward completed_tasks.
func (r *GormAnalyticsRepository) ModeratorPerformance(ctx context.Context) ([]ModeratorTaskCount, error) {
	rows := []ModeratorTaskCount{}
	err := r.db.WithContext(ctx).
		Table("projects").
		Select("users.id AS moderator_id, users.name AS name, COUNT(*) AS total_tasks, "+
			"SUM(CASE WHEN tasks.status IN ? THEN 1 ELSE 0 END) AS completed_tasks", completedStatuses).
		Joins("LEFT JOIN tasks ON tasks.project_id = projects.id").
		Joins("JOIN users ON users.id = projects.moderator_id").
		Group("users.id, users.name").
		Order("users.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
