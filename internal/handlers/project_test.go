package handlers

import (
	"net/http"

	"github.com/yukikurage/projectly-api/internal/dto"
	"github.com/yukikurage/projectly-api/internal/models"
)

func (s *HandlerTestSuite) TestCreateProject() {
	w := s.call(s.projects.CreateProject, &s.moderator, http.MethodPost, "/api/projects", map[string]any{
		"title":     "Launch",
		"moderator": s.moderator.ID,
		"members":   []uint64{s.user.ID, s.other.ID},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var project dto.ProjectDTO
	s.decode(w, &project)
	s.Equal("Launch", project.Title)
	s.Equal("", project.Description)
	s.Equal(models.ProjectStatusActive, project.Status)
	s.Require().NotNil(project.Moderator)
	s.Equal("mod@example.com", project.Moderator.Email)
	s.Require().Len(project.Members, 2)
	s.Equal(s.user.ID, project.Members[0].ID)
	s.Equal(s.other.ID, project.Members[1].ID)
}

func (s *HandlerTestSuite) TestCreateProject_Errors() {
	w := s.call(s.projects.CreateProject, &s.moderator, http.MethodPost, "/api/projects", map[string]any{
		"title":     "Launch",
		"moderator": 9999,
	})
	s.requireError(w, http.StatusNotFound, "Moderator not found")

	w = s.call(s.projects.CreateProject, &s.moderator, http.MethodPost, "/api/projects", map[string]any{
		"title":     "Launch",
		"moderator": s.user.ID,
	})
	s.requireError(w, http.StatusBadRequest, "Selected user must be a moderator or admin")

	w = s.call(s.projects.CreateProject, &s.user, http.MethodPost, "/api/projects", map[string]any{
		"title":     "Launch",
		"moderator": s.moderator.ID,
	})
	s.requireError(w, http.StatusForbidden, "")

	w = s.call(s.projects.CreateProject, &s.moderator, http.MethodPost, "/api/projects", map[string]any{
		"title":   "Launch",
		"members": "everyone",
	})
	apiErr := s.requireError(w, http.StatusBadRequest, "members must be a list of ids")
	s.Equal(map[string]any{"field": "members"}, apiErr.Details)
}

func (s *HandlerTestSuite) TestUpdateProject_ClearsDescription() {
	project := s.createProject()

	w := s.call(s.projects.UpdateProject, &s.moderator, http.MethodPut, "/", map[string]any{
		"description": "first",
	}, idParam(project.ID))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.call(s.projects.UpdateProject, &s.moderator, http.MethodPut, "/", map[string]any{
		"description": "",
		"status":      "completed",
	}, idParam(project.ID))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var updated dto.ProjectDTO
	s.decode(w, &updated)
	s.Equal("", updated.Description)
	s.Equal(models.ProjectStatusCompleted, updated.Status)
	s.Equal("Project", updated.Title)

	w = s.call(s.projects.UpdateProject, &s.moderator, http.MethodPut, "/", map[string]any{
		"status": "archived",
	}, idParam(project.ID))
	s.requireError(w, http.StatusBadRequest, "Invalid status")
}

func (s *HandlerTestSuite) TestListProjects_UserSeesMemberships() {
	s.createProject(s.user.ID)
	s.createProject(s.other.ID)

	var projects []dto.ProjectDTO
	w := s.call(s.projects.ListProjects, &s.user, http.MethodGet, "/api/projects", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &projects)
	s.Len(projects, 1)

	w = s.call(s.projects.ListProjects, &s.moderator, http.MethodGet, "/api/projects?status=active", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &projects)
	s.Len(projects, 2)
}

func (s *HandlerTestSuite) TestDeleteProject_AdminOnly() {
	project := s.createProject()

	w := s.call(s.projects.DeleteProject, &s.moderator, http.MethodDelete, "/", nil, idParam(project.ID))
	s.requireError(w, http.StatusForbidden, "")

	w = s.call(s.projects.DeleteProject, &s.admin, http.MethodDelete, "/", nil, idParam(project.ID))
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.call(s.projects.DeleteProject, &s.admin, http.MethodDelete, "/", nil, idParam(project.ID))
	s.requireError(w, http.StatusNotFound, "Project not found")
}
