package dto

import (
	"time"

	"github.com/yukikurage/projectly-api/internal/models"
)

// ProjectDTO represents a project with its moderator and members expanded
type ProjectDTO struct {
	ID          uint64               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	Moderator   *UserSummary         `json:"moderator"`
	Members     []UserSummary        `json:"members"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// ToProjectDTO converts a Project model. users holds the referenced users
// that still exist; a missing moderator becomes null and missing members
// are left out.
func ToProjectDTO(project models.Project, users map[uint64]models.User) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		Title:       project.Title,
		Description: project.Description,
		Status:      project.Status,
		Members:     []UserSummary{},
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}

	if u, ok := users[project.ModeratorID]; ok {
		moderator := ToUserSummary(u)
		dto.Moderator = &moderator
	}

	for _, id := range project.MemberIDs() {
		if u, ok := users[id]; ok {
			dto.Members = append(dto.Members, ToUserSummary(u))
		}
	}

	return dto
}
