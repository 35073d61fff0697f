package repository

import (
	"context"

	"github.com/yukikurage/projectly-api/internal/models"
)

// Group is one row of a count-grouped-by query.
type Group struct {
	Key   string `gorm:"column:group_key"`
	Count int64  `gorm:"column:group_count"`
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByIDs returns the users that exist among ids, keyed by id
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]models.User, error)

	// FindByEmail finds a user by e-mail address
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves users, newest first
	List(ctx context.Context, filter UserFilter) ([]models.User, error)

	// Update applies the given column changes and returns the updated user
	Update(ctx context.Context, id uint64, changes map[string]interface{}) (*models.User, error)

	// Delete hard deletes a user
	Delete(ctx context.Context, id uint64) error

	// Count counts all users
	Count(ctx context.Context) (int64, error)
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Role *models.Role
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a project together with its member rows
	Create(ctx context.Context, project *models.Project, memberIDs []uint64) error

	// FindByID finds a project by ID with members in their stored order
	FindByID(ctx context.Context, id uint64) (*models.Project, error)

	// FindByIDs returns the projects that exist among ids, keyed by id
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]models.Project, error)

	// List retrieves projects with filtering, newest first
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, error)

	// Update applies the given column changes. A non-nil memberIDs replaces
	// the member set.
	Update(ctx context.Context, id uint64, changes map[string]interface{}, memberIDs *[]uint64) (*models.Project, error)

	// Delete hard deletes a project and its member rows. Tasks are left alone.
	Delete(ctx context.Context, id uint64) error

	// CountGroupedBy counts projects per value of column
	CountGroupedBy(ctx context.Context, column string) ([]Group, error)

	// Count counts all projects
	Count(ctx context.Context) (int64, error)
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	Status   *models.ProjectStatus
	MemberID *uint64
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// List retrieves tasks with filtering, newest first
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// Update applies the given column changes and returns the updated task
	Update(ctx context.Context, id uint64, changes map[string]interface{}) (*models.Task, error)

	// UpdateIfStatus applies changes only while the task still has the
	// expected status. It reports whether a row was changed.
	UpdateIfStatus(ctx context.Context, id uint64, expected models.TaskStatus, changes map[string]interface{}) (bool, error)

	// Delete hard deletes a task
	Delete(ctx context.Context, id uint64) error

	// CountGroupedBy counts tasks per value of column
	CountGroupedBy(ctx context.Context, column string, filter TaskFilter) ([]Group, error)

	// Count counts tasks matching filter
	Count(ctx context.Context, filter TaskFilter) (int64, error)
}

// TaskFilter holds filtering options for listing tasks. All set fields must
// match.
type TaskFilter struct {
	AssignedToID *uint64
	ProjectID    *uint64
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
}

// AnalyticsRepository runs the cross-table read queries behind the
// dashboard and analytics reports.
type AnalyticsRepository interface {
	// TasksPerProject counts tasks per existing project
	TasksPerProject(ctx context.Context) ([]ProjectTaskCount, error)

	// TicketsPerUser counts resolved or verified tasks per existing assignee
	TicketsPerUser(ctx context.Context) ([]UserTicketCount, error)

	// ModeratorPerformance totals tasks over each moderator's projects
	ModeratorPerformance(ctx context.Context) ([]ModeratorTaskCount, error)
}

type ProjectTaskCount struct {
	ProjectID uint64
	Title     string
	Count     int64
}

type UserTicketCount struct {
	UserID uint64
	Name   string
	Count  int64
}

type ModeratorTaskCount struct {
	ModeratorID    uint64
	Name           string
	TotalTasks     int64
	CompletedTasks int64
}
