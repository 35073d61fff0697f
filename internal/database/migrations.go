package database

import (
	"fmt"

	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// Composite indexes backing scoped listings and the dashboard group-bys.
var indexes = []index{
	{"tasks", "idx_tasks_assignee_status", "assigned_to_id, status"},
	{"tasks", "idx_tasks_project_status", "project_id, status"},
	{"tasks", "idx_tasks_created_at", "created_at"},
	{"projects", "idx_projects_status", "status"},
	{"projects", "idx_projects_created_at", "created_at"},
}

// AddIndexes creates the composite indexes that are missing.
func AddIndexes(db *gorm.DB) error {
	m := db.Migrator()
	for _, idx := range indexes {
		if m.HasIndex(idx.table, idx.name) {
			continue
		}
		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}
