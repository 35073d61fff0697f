package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/projectly-api/internal/models"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

var projectGroupColumns = map[string]bool{
	"status":       true,
	"moderator_id": true,
}

func preloadMembers(db *gorm.DB) *gorm.DB {
	return db.Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func memberRows(projectID uint64, ids []uint64) []models.ProjectMember {
	rows := make([]models.ProjectMember, 0, len(ids))
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, models.ProjectMember{ProjectID: projectID, UserID: id, Position: len(rows)})
	}
	return rows
}

// Create creates a project and its member rows in one transaction
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project, memberIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project.Members = nil
		if err := tx.Create(project).Error; err != nil {
			return err
		}

		rows := memberRows(project.ID, memberIDs)
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		project.Members = rows
		return nil
	})
}

// FindByID finds a project by ID with members
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64) (*models.Project, error) {
	var project models.Project
	if err := preloadMembers(r.db.WithContext(ctx)).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByIDs returns the projects that exist among ids, without members
func (r *GormProjectRepository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]models.Project, error) {
	found := make(map[uint64]models.Project, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var projects []models.Project
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&projects).Error; err != nil {
		return nil, err
	}
	for _, p := range projects {
		found[p.ID] = p
	}
	return found, nil
}

// List retrieves projects with filtering, newest first
func (r *GormProjectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	db := r.db.WithContext(ctx)
	query := db.Model(&models.Project{})

	if filter.Status != nil {
		query = query.Where("projects.status = ?", *filter.Status)
	}
	if filter.MemberID != nil {
		memberSubQuery := db.Model(&models.ProjectMember{}).
			Select("1").
			Where("project_members.project_id = projects.id").
			Where("project_members.user_id = ?", *filter.MemberID)
		query = query.Where("EXISTS (?)", memberSubQuery)
	}

	projects := []models.Project{}
	err := preloadMembers(query).
		Order("projects.created_at DESC").
		Order("projects.id DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// Update applies changes and, when memberIDs is non-nil, replaces the
// member set. Both happen in one transaction.
func (r *GormProjectRepository) Update(ctx context.Context, id uint64, changes map[string]interface{}, memberIDs *[]uint64) (*models.Project, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(changes) > 0 {
			if err := tx.Model(&models.Project{ID: id}).Updates(changes).Error; err != nil {
				return err
			}
		}

		if memberIDs != nil {
			if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
				return err
			}
			rows := memberRows(id, *memberIDs)
			if len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete hard deletes a project and its member rows
func (r *GormProjectRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Project{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CountGroupedBy counts projects per value of column
func (r *GormProjectRepository) CountGroupedBy(ctx context.Context, column string) ([]Group, error) {
	if !projectGroupColumns[column] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGroupColumn, column)
	}

	groups := []Group{}
	err := r.db.WithContext(ctx).Model(&models.Project{}).
		Select(column + " AS group_key, COUNT(*) AS group_count").
		Group(column).
		Order(column).
		Scan(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// Count counts all projects
func (r *GormProjectRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Count(&count).Error
	return count, err
}
