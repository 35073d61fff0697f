package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/projectly-api/internal/constants"
	"github.com/yukikurage/projectly-api/internal/dto"
	"github.com/yukikurage/projectly-api/internal/metrics"
	"github.com/yukikurage/projectly-api/internal/models"
	"github.com/yukikurage/projectly-api/internal/policy"
	"github.com/yukikurage/projectly-api/internal/repository"
	"github.com/yukikurage/projectly-api/internal/workflow"
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	aiService   *AIService
	resolve     resolver
	log         *zap.Logger
}

// NewTaskService creates a new TaskService. aiService may be nil.
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	aiService *AIService,
	log *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		aiService:   aiService,
		resolve:     resolver{users: userRepo, projects: projectRepo},
		log:         log.Named("tasks"),
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status    *models.TaskStatus
	ProjectID *uint64
	Priority  *models.TaskPriority
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title        string
	Description  *string
	ProjectID    uint64
	AssignedToID uint64
	Priority     *models.TaskPriority
	DueDate      *time.Time
}

// UpdateTaskInput represents a partial task update. Nil fields are left
// untouched; ClearDueDate removes the due date.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	ProjectID    *uint64
	AssignedToID *uint64
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	Status       *models.TaskStatus
	ResolvedNote *string
}

// UpdateStatusInput represents a workflow step. At least one field is set.
type UpdateStatusInput struct {
	Status       *models.TaskStatus
	ResolvedNote *string
}

// SuggestTasksInput represents input for drafting tasks from text
type SuggestTasksInput struct {
	ProjectID uint64
	Text      string
}

// ListTasks returns the tasks visible to actor. Users only see tasks
// assigned to them.
func (s *TaskService) ListTasks(ctx context.Context, actor policy.Actor, input ListTasksInput) ([]dto.TaskDTO, error) {
	if err := authorize(actor, policy.ListTasks); err != nil {
		return nil, err
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	filter := repository.TaskFilter{
		Status:    input.Status,
		ProjectID: input.ProjectID,
		Priority:  input.Priority,
	}
	if policy.Scoped(actor, policy.ListTasks) {
		filter.AssignedToID = &actor.ID
	}

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return s.resolve.taskDTOs(ctx, tasks)
}

// GetTask returns a task. Users may only read tasks assigned to them.
func (s *TaskService) GetTask(ctx context.Context, actor policy.Actor, id uint64) (*dto.TaskDTO, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.Authorize(actor, policy.GetTask, policy.Resource{AssigneeID: task.AssignedToID}).Allowed() {
		return nil, ErrTaskNotVisible
	}
	return s.resolve.taskDTO(ctx, task)
}

// CreateTask creates an open task on an existing project
func (s *TaskService) CreateTask(ctx context.Context, actor policy.Actor, input CreateTaskInput) (*dto.TaskDTO, error) {
	if err := authorize(actor, policy.CreateTask); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" || input.ProjectID == 0 || input.AssignedToID == 0 {
		return nil, ErrTaskFieldsNeeded
	}
	if len(title) > constants.MaxTitleLength {
		return nil, ErrTitleTooLong
	}

	task := &models.Task{
		Title:        title,
		ProjectID:    input.ProjectID,
		AssignedToID: input.AssignedToID,
		Priority:     models.PriorityMedium,
		DueDate:      input.DueDate,
		Status:       workflow.Initial,
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}

	if err := s.ensureProject(ctx, input.ProjectID); err != nil {
		return nil, err
	}
	if err := s.ensureAssignee(ctx, input.AssignedToID); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.log.Info("task created",
		zap.Uint64("task_id", task.ID),
		zap.Uint64("project_id", task.ProjectID),
		zap.Uint64("assigned_to", task.AssignedToID),
		zap.Uint64("actor_id", actor.ID))
	return s.resolve.taskDTO(ctx, task)
}

// UpdateTask applies a partial update. A status in the update follows the
// same workflow rules as UpdateTaskStatus.
func (s *TaskService) UpdateTask(ctx context.Context, actor policy.Actor, id uint64, input UpdateTaskInput) (*dto.TaskDTO, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.UpdateTask, policy.Resource{AssigneeID: task.AssignedToID}).Allowed() {
		return nil, ErrForbidden
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
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		changes["priority"] = *input.Priority
	}
	if input.ClearDueDate {
		changes["due_date"] = nil
	} else if input.DueDate != nil {
		changes["due_date"] = *input.DueDate
	}
	if input.ResolvedNote != nil {
		changes["resolved_note"] = *input.ResolvedNote
	}
	if input.ProjectID != nil && *input.ProjectID != task.ProjectID {
		if err := s.ensureProject(ctx, *input.ProjectID); err != nil {
			return nil, err
		}
		changes["project_id"] = *input.ProjectID
	}
	if input.AssignedToID != nil && *input.AssignedToID != task.AssignedToID {
		if err := s.ensureAssignee(ctx, *input.AssignedToID); err != nil {
			return nil, err
		}
		changes["assigned_to_id"] = *input.AssignedToID
	}

	updated, err := s.applyChanges(ctx, task, input.Status, changes)
	if err != nil {
		return nil, err
	}

	s.log.Info("task updated", zap.Uint64("task_id", id), zap.Uint64("actor_id", actor.ID))
	return s.resolve.taskDTO(ctx, updated)
}

// UpdateTaskStatus moves a task along the workflow and stores the resolved
// note when one is given. The assignee may do this regardless of role.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, actor policy.Actor, id uint64, input UpdateStatusInput) (*dto.TaskDTO, error) {
	if input.Status == nil && input.ResolvedNote == nil {
		return nil, ErrStatusRequired
	}

	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.UpdateTaskStatus, policy.Resource{AssigneeID: task.AssignedToID}).Allowed() {
		return nil, ErrTaskNotAssignee
	}

	changes := map[string]interface{}{}
	if input.ResolvedNote != nil {
		changes["resolved_note"] = *input.ResolvedNote
	}

	updated, err := s.applyChanges(ctx, task, input.Status, changes)
	if err != nil {
		return nil, err
	}

	s.log.Info("task status updated",
		zap.Uint64("task_id", id),
		zap.String("status", string(updated.Status)),
		zap.Uint64("actor_id", actor.ID))
	return s.resolve.taskDTO(ctx, updated)
}

// VerifyTask marks a resolved task as verified by actor
func (s *TaskService) VerifyTask(ctx context.Context, actor policy.Actor, id uint64) (*dto.TaskDTO, error) {
	if err := authorize(actor, policy.VerifyTask); err != nil {
		return nil, err
	}

	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.CheckVerify(task.Status); err != nil {
		return nil, validation(err)
	}

	ok, err := s.taskRepo.UpdateIfStatus(ctx, id, models.TaskStatusResolved, map[string]interface{}{
		"status":         models.TaskStatusVerified,
		"verified_by_id": actor.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify task: %w", err)
	}
	if !ok {
		// Someone else changed the status after it was read.
		return nil, validation(workflow.ErrNotResolved)
	}
	metrics.TaskTransitions.WithLabelValues(string(models.TaskStatusResolved), string(models.TaskStatusVerified)).Inc()

	verified, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info("task verified", zap.Uint64("task_id", id), zap.Uint64("actor_id", actor.ID))
	return s.resolve.taskDTO(ctx, verified)
}

// DeleteTask removes a task
func (s *TaskService) DeleteTask(ctx context.Context, actor policy.Actor, id uint64) error {
	if err := authorize(actor, policy.DeleteTask); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.log.Info("task deleted", zap.Uint64("task_id", id), zap.Uint64("actor_id", actor.ID))
	return nil
}

// SuggestTasks drafts tasks for a project from free text. Nothing is
// stored.
func (s *TaskService) SuggestTasks(ctx context.Context, actor policy.Actor, input SuggestTasksInput) ([]dto.TaskSuggestion, error) {
	if err := authorize(actor, policy.SuggestTasks); err != nil {
		return nil, err
	}
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrSuggestionText
	}
	if len(text) > constants.MaxSuggestionInput {
		return nil, ErrSuggestionTooLong
	}

	project, err := s.projectRepo.FindByID(ctx, input.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	drafts, err := s.aiService.SuggestTasks(ctx, project.Title, text)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest tasks: %w", err)
	}

	today := s.aiService.now().Truncate(24 * time.Hour)
	suggestions := make([]dto.TaskSuggestion, 0, len(drafts))
	for _, d := range drafts {
		title := strings.TrimSpace(d.Title)
		if title == "" {
			continue
		}
		if len(suggestions) == constants.MaxAISuggestedTasks {
			break
		}

		priority := models.TaskPriority(strings.ToLower(strings.TrimSpace(d.Priority)))
		if !priority.Valid() {
			priority = models.PriorityMedium
		}

		suggestion := dto.TaskSuggestion{
			Title:       title,
			Description: strings.TrimSpace(d.Description),
			Priority:    priority,
		}
		if due, err := ParseDueDate(d.DueDate); err == nil && due != nil && !due.Before(today) {
			suggestion.DueDate = due
		}
		suggestions = append(suggestions, suggestion)
	}

	if len(suggestions) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	return suggestions, nil
}

// applyChanges writes changes together with an optional status move. A
// status move is checked against the workflow and written with a
// compare-and-set on the status read earlier.
func (s *TaskService) applyChanges(ctx context.Context, task *models.Task, target *models.TaskStatus, changes map[string]interface{}) (*models.Task, error) {
	if target == nil || *target == task.Status {
		updated, err := s.taskRepo.Update(ctx, task.ID, changes)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTaskNotFound
			}
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
		return updated, nil
	}

	if err := workflow.CheckStatusChange(task.Status, *target); err != nil {
		if errors.Is(err, workflow.ErrInvalidStatus) {
			return nil, ErrInvalidStatus
		}
		return nil, validation(err)
	}

	changes["status"] = *target
	ok, err := s.taskRepo.UpdateIfStatus(ctx, task.ID, task.Status, changes)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if !ok {
		return nil, ErrStatusChanged
	}
	metrics.TaskTransitions.WithLabelValues(string(task.Status), string(*target)).Inc()

	return s.findTask(ctx, task.ID)
}

func (s *TaskService) findTask(ctx context.Context, id uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) ensureProject(ctx context.Context, id uint64) error {
	if _, err := s.projectRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}
	return nil
}

func (s *TaskService) ensureAssignee(ctx context.Context, id uint64) error {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		return fmt.Errorf("failed to find assigned user: %w", err)
	}
	return nil
}

// ParseDueDate accepts YYYY-MM-DD or RFC3339. An empty string yields nil.
func ParseDueDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, ErrInvalidDueDate
	}
	return &t, nil
}
