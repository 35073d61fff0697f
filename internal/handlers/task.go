package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/yukikurage/projectly-api/internal/errors"
	"github.com/yukikurage/projectly-api/internal/models"
	"github.com/yukikurage/projectly-api/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
	log         *zap.Logger
}

func NewTaskHandler(taskService *services.TaskService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
	}
}

// ListTasks returns the tasks visible to the current user.
// Can filter by status, project and priority.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var input services.ListTasksInput
	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		input.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := models.TaskPriority(v)
		input.Priority = &priority
	}
	projectID, err := queryID(c.Query("project"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid project")
		return
	}
	input.ProjectID = projectID

	tasks, err := h.taskService.ListTasks(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetTask returns a single task.
func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTask creates a task in an existing project.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var rawReq body
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	fields, err := taskFields(rawReq)
	if err != nil {
		badBody(c, err)
		return
	}

	input := services.CreateTaskInput{
		Description: fields.Description,
		Priority:    fields.Priority,
		DueDate:     fields.DueDate,
	}
	if fields.Title != nil {
		input.Title = *fields.Title
	}
	if fields.ProjectID != nil {
		input.ProjectID = *fields.ProjectID
	}
	if fields.AssignedToID != nil {
		input.AssignedToID = *fields.AssignedToID
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTask changes only the fields present in the request body.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	var rawReq body
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := taskFields(rawReq)
	if err != nil {
		badBody(c, err)
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), actor, id, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTaskStatus moves a task along the workflow.
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	type UpdateStatusRequest struct {
		Status       *models.TaskStatus `json:"status"`
		ResolvedNote *string            `json:"resolvedNote"`
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTaskStatus(c.Request.Context(), actor, id, services.UpdateStatusInput{
		Status:       req.Status,
		ResolvedNote: req.ResolvedNote,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// VerifyTask confirms a resolved task.
func (h *TaskHandler) VerifyTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := h.taskService.VerifyTask(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask removes a task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), actor, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// SuggestTasks drafts tasks for a project from free text using AI.
// Nothing is saved.
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var rawReq body
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	projectID, err := rawReq.id("project")
	if err != nil {
		badBody(c, err)
		return
	}
	if projectID == nil {
		apierrors.BadRequest(c, "Project is required")
		return
	}
	text, err := rawReq.str("text")
	if err != nil {
		badBody(c, err)
		return
	}

	input := services.SuggestTasksInput{ProjectID: *projectID}
	if text != nil {
		input.Text = *text
	}

	suggestions, err := h.taskService.SuggestTasks(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": suggestions})
}

// taskFields reads the task fields present in rawReq
func taskFields(rawReq body) (services.UpdateTaskInput, error) {
	var (
		input services.UpdateTaskInput
		err   error
	)
	if input.Title, err = rawReq.str("title"); err != nil {
		return input, err
	}
	if input.Description, err = rawReq.str("description"); err != nil {
		return input, err
	}
	if input.ProjectID, err = rawReq.id("project"); err != nil {
		return input, err
	}
	if input.AssignedToID, err = rawReq.id("assignedTo"); err != nil {
		return input, err
	}
	priority, err := rawReq.str("priority")
	if err != nil {
		return input, err
	}
	if priority != nil {
		p := models.TaskPriority(*priority)
		input.Priority = &p
	}
	if input.DueDate, input.ClearDueDate, err = rawReq.dueDate("dueDate"); err != nil {
		return input, err
	}
	status, err := rawReq.str("status")
	if err != nil {
		return input, err
	}
	if status != nil {
		s := models.TaskStatus(*status)
		input.Status = &s
	}
	if input.ResolvedNote, err = rawReq.str("resolvedNote"); err != nil {
		return input, err
	}
	return input, nil
}
