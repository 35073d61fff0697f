package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/projectly-api/internal/constants"
	"github.com/yukikurage/projectly-api/internal/dto"
	"github.com/yukikurage/projectly-api/internal/models"
	"github.com/yukikurage/projectly-api/internal/policy"
	"github.com/yukikurage/projectly-api/internal/repository"
)

// ProjectService handles project business logic
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	resolve     resolver
	log         *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository, log *zap.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		resolve:     resolver{users: userRepo, projects: projectRepo},
		log:         log.Named("projects"),
	}
}

// ListProjectsInput represents filters for listing projects
type ListProjectsInput struct {
	Status *models.ProjectStatus
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Title       string
	Description *string
	Status      *models.ProjectStatus
	ModeratorID uint64
	MemberIDs   []uint64
}

// UpdateProjectInput represents a partial project update. Nil fields are
// left untouched.
type UpdateProjectInput struct {
	Title       *string
	Description *string
	Status      *models.ProjectStatus
	ModeratorID *uint64
	MemberIDs   *[]uint64
}

// ListProjects returns the projects visible to actor. Users only see the
// projects they are members of.
func (s *ProjectService) ListProjects(ctx context.Context, actor policy.Actor, input ListProjectsInput) ([]dto.ProjectDTO, error) {
	if err := authorize(actor, policy.ListProjects); err != nil {
		return nil, err
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	filter := repository.ProjectFilter{Status: input.Status}
	if policy.Scoped(actor, policy.ListProjects) {
		filter.MemberID = &actor.ID
	}

	projects, err := s.projectRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return s.resolve.projectDTOs(ctx, projects)
}

// CreateProject creates a project owned by a moderator or admin
func (s *ProjectService) CreateProject(ctx context.Context, actor policy.Actor, input CreateProjectInput) (*dto.ProjectDTO, error) {
	if err := authorize(actor, policy.CreateProject); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" || input.ModeratorID == 0 {
		return nil, ErrProjectFieldsNeeded
	}
	if len(title) > constants.MaxTitleLength {
		return nil, ErrTitleTooLong
	}

	project := &models.Project{
		Title:       title,
		Status:      models.ProjectStatusActive,
		ModeratorID: input.ModeratorID,
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		project.Status = *input.Status
	}

	if err := s.ensureModerator(ctx, input.ModeratorID); err != nil {
		return nil, err
	}
	members := uniqueUint64(input.MemberIDs)
	if err := s.ensureMembers(ctx, members); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Create(ctx, project, members); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.log.Info("project created",
		zap.Uint64("project_id", project.ID),
		zap.Uint64("moderator_id", project.ModeratorID),
		zap.Uint64("actor_id", actor.ID))
	return s.resolve.projectDTO(ctx, project)
}

// UpdateProject applies a partial update. A changed moderator is checked
// the same way as on create.
func (s *ProjectService) UpdateProject(ctx context.Context, actor policy.Actor, id uint64, input UpdateProjectInput) (*dto.ProjectDTO, error) {
	if err := authorize(actor, policy.UpdateProject); err != nil {
		return nil, err
	}

	project, err := s.findProject(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleEmpty
		}
		if len(title) > constants.MaxTitleLength {
			return nil, ErrTitleTooLong
		}
		changes["title"] = title
	}
	if input.Description != nil {
		changes["description"] = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		changes["status"] = *input.Status
	}
	if input.ModeratorID != nil && *input.ModeratorID != project.ModeratorID {
		if err := s.ensureModerator(ctx, *input.ModeratorID); err != nil {
			return nil, err
		}
		changes["moderator_id"] = *input.ModeratorID
	}

	var members *[]uint64
	if input.MemberIDs != nil {
		ids := uniqueUint64(*input.MemberIDs)
		if err := s.ensureMembers(ctx, ids); err != nil {
			return nil, err
		}
		members = &ids
	}

	updated, err := s.projectRepo.Update(ctx, id, changes, members)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.log.Info("project updated", zap.Uint64("project_id", id), zap.Uint64("actor_id", actor.ID))
	return s.resolve.projectDTO(ctx, updated)
}

// DeleteProject removes a project. Tasks that reference it are kept.
func (s *ProjectService) DeleteProject(ctx context.Context, actor policy.Actor, id uint64) error {
	if err := authorize(actor, policy.DeleteProject); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.log.Info("project deleted", zap.Uint64("project_id", id), zap.Uint64("actor_id", actor.ID))
	return nil
}

func (s *ProjectService) findProject(ctx context.Context, id uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// ensureModerator checks that id is an existing moderator or admin
func (s *ProjectService) ensureModerator(ctx context.Context, id uint64) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrModeratorNotFound
		}
		return fmt.Errorf("failed to find moderator: %w", err)
	}
	if !policy.CanModerate(*user) {
		return ErrNotModerator
	}
	return nil
}

// ensureMembers checks that every id is an existing user
func (s *ProjectService) ensureMembers(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to find members: %w", err)
	}
	if len(found) != len(ids) {
		return ErrMemberNotFound
	}
	return nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
