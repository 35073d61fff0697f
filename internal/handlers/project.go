package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/yukikurage/projectly-api/internal/errors"
	"github.com/yukikurage/projectly-api/internal/models"
	"github.com/yukikurage/projectly-api/internal/services"
)

// ProjectHandler serves project endpoints
type ProjectHandler struct {
	projectService *services.ProjectService
	log            *zap.Logger
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService *services.ProjectService, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, log: log}
}

// ListProjects handles GET /api/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var input services.ListProjectsInput
	if v := c.Query("status"); v != "" {
		status := models.ProjectStatus(v)
		input.Status = &status
	}

	projects, err := h.projectService.ListProjects(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// CreateProject handles POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req body
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := projectFields(req)
	if err != nil {
		badBody(c, err)
		return
	}

	create := services.CreateProjectInput{
		Description: input.Description,
		Status:      input.Status,
	}
	if input.Title != nil {
		create.Title = *input.Title
	}
	if input.ModeratorID != nil {
		create.ModeratorID = *input.ModeratorID
	}
	if input.MemberIDs != nil {
		create.MemberIDs = *input.MemberIDs
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), actor, create)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// UpdateProject handles PUT /api/projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "project")
	if !ok {
		return
	}

	var req body
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := projectFields(req)
	if err != nil {
		badBody(c, err)
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), actor, id, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// DeleteProject handles DELETE /api/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "project")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), actor, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

// projectFields reads the project fields present in req
func projectFields(req body) (services.UpdateProjectInput, error) {
	var (
		input services.UpdateProjectInput
		err   error
	)
	if input.Title, err = req.str("title"); err != nil {
		return input, err
	}
	if input.Description, err = req.str("description"); err != nil {
		return input, err
	}
	status, err := req.str("status")
	if err != nil {
		return input, err
	}
	if status != nil {
		s := models.ProjectStatus(*status)
		input.Status = &s
	}
	if input.ModeratorID, err = req.id("moderator"); err != nil {
		return input, err
	}
	if input.MemberIDs, err = req.ids("members"); err != nil {
		return input, err
	}
	return input, nil
}
