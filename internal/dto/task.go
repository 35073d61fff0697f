package dto

import (
	"time"

	"github.com/yukikurage/projectly-api/internal/models"
)

// ProjectRef is the reference projection of a project
type ProjectRef struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

// TaskDTO represents a task with its references expanded
type TaskDTO struct {
	ID           uint64              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Project      *ProjectRef         `json:"project"`
	AssignedTo   *UserSummary        `json:"assignedTo"`
	Priority     models.TaskPriority `json:"priority"`
	DueDate      *time.Time          `json:"dueDate"`
	Status       models.TaskStatus   `json:"status"`
	ResolvedNote string              `json:"resolvedNote"`
	VerifiedBy   *UserName           `json:"verifiedBy"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// TaskRefs holds the referenced records that still exist.
type TaskRefs struct {
	Projects map[uint64]models.Project
	Users    map[uint64]models.User
}

// ToTaskDTO converts a Task model. Dangling references become null.
func ToTaskDTO(task models.Task, refs TaskRefs) TaskDTO {
	dto := TaskDTO{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		Priority:     task.Priority,
		DueDate:      task.DueDate,
		Status:       task.Status,
		ResolvedNote: task.ResolvedNote,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}

	if p, ok := refs.Projects[task.ProjectID]; ok {
		dto.Project = &ProjectRef{ID: p.ID, Title: p.Title}
	}
	if u, ok := refs.Users[task.AssignedToID]; ok {
		assignee := ToUserSummary(u)
		dto.AssignedTo = &assignee
	}
	if task.VerifiedByID != nil {
		if u, ok := refs.Users[*task.VerifiedByID]; ok {
			dto.VerifiedBy = &UserName{ID: u.ID, Name: u.Name}
		}
	}

	return dto
}

// TaskSuggestion is a drafted task that has not been created
type TaskSuggestion struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"dueDate"`
}
