package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/projectly-api/internal/dto"
	"github.com/yukikurage/projectly-api/internal/models"
	"github.com/yukikurage/projectly-api/internal/repository"
)

// resolver expands weak references into summaries with one lookup per
// table. References that no longer resolve are dropped by the dto
// conversions.
type resolver struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
}

func (r resolver) projectDTOs(ctx context.Context, projects []models.Project) ([]dto.ProjectDTO, error) {
	var ids []uint64
	for _, p := range projects {
		ids = append(ids, p.ModeratorID)
		ids = append(ids, p.MemberIDs()...)
	}

	users, err := r.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project users: %w", err)
	}

	out := make([]dto.ProjectDTO, len(projects))
	for i, p := range projects {
		out[i] = dto.ToProjectDTO(p, users)
	}
	return out, nil
}

func (r resolver) projectDTO(ctx context.Context, project *models.Project) (*dto.ProjectDTO, error) {
	out, err := r.projectDTOs(ctx, []models.Project{*project})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (r resolver) taskDTOs(ctx context.Context, tasks []models.Task) ([]dto.TaskDTO, error) {
	var userIDs, projectIDs []uint64
	for _, t := range tasks {
		projectIDs = append(projectIDs, t.ProjectID)
		userIDs = append(userIDs, t.AssignedToID)
		if t.VerifiedByID != nil {
			userIDs = append(userIDs, *t.VerifiedByID)
		}
	}

	users, err := r.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve task users: %w", err)
	}
	projects, err := r.projects.FindByIDs(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve task projects: %w", err)
	}

	refs := dto.TaskRefs{Projects: projects, Users: users}
	out := make([]dto.TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = dto.ToTaskDTO(t, refs)
	}
	return out, nil
}

func (r resolver) taskDTO(ctx context.Context, task *models.Task) (*dto.TaskDTO, error) {
	out, err := r.taskDTOs(ctx, []models.Task{*task})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}
