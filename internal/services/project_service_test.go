package services

import (
	"errors"

	"github.com/yukikurage/projectly-api/internal/models"
	"github.com/yukikurage/projectly-api/internal/policy"
)

func (s *ServiceTestSuite) TestCreateProject_ModeratorRole() {
	_, err := s.projects.CreateProject(s.ctx, s.admin, CreateProjectInput{Title: "P", ModeratorID: s.user.ID})
	s.requireKind(err, KindValidation)
	s.EqualError(err, "Selected user must be a moderator or admin")

	for _, m := range []policy.Actor{s.moderator, s.admin} {
		p, err := s.projects.CreateProject(s.ctx, s.admin, CreateProjectInput{Title: "P", ModeratorID: m.ID})
		s.Require().NoError(err)
		s.Require().NotNil(p.Moderator)
		s.Equal(m.ID, p.Moderator.ID)
	}
}

func (s *ServiceTestSuite) TestCreateProject_Defaults() {
	p, err := s.projects.CreateProject(s.ctx, s.moderator, CreateProjectInput{Title: "  P  ", ModeratorID: s.moderator.ID})
	s.Require().NoError(err)
	s.Equal("P", p.Title)
	s.Equal("", p.Description)
	s.Equal(models.ProjectStatusActive, p.Status)
	s.NotNil(p.Members)
	s.Empty(p.Members)
	s.Equal("mod@example.com", p.Moderator.Email)
}

func (s *ServiceTestSuite) TestCreateProject_Errors() {
	_, err := s.projects.CreateProject(s.ctx, s.moderator, CreateProjectInput{Title: "P", ModeratorID: 999})
	s.True(errors.Is(err, ErrModeratorNotFound))

	_, err = s.projects.CreateProject(s.ctx, s.moderator, CreateProjectInput{ModeratorID: s.moderator.ID})
	s.True(errors.Is(err, ErrProjectFieldsNeeded))

	_, err = s.projects.CreateProject(s.ctx, s.moderator, CreateProjectInput{Title: "P", ModeratorID: s.moderator.ID, MemberIDs: []uint64{999}})
	s.True(errors.Is(err, ErrMemberNotFound))

	archived := models.ProjectStatus("archived")
	_, err = s.projects.CreateProject(s.ctx, s.moderator, CreateProjectInput{Title: "P", ModeratorID: s.moderator.ID, Status: &archived})
	s.True(errors.Is(err, ErrInvalidStatus))

	_, err = s.projects.CreateProject(s.ctx, s.user, CreateProjectInput{Title: "P", ModeratorID: s.moderator.ID})
	s.requireKind(err, KindForbidden)
}

func (s *ServiceTestSuite) TestListProjects_UserSeesMemberships() {
	mine := s.createProject(s.user.ID, s.other.ID)
	s.createProject(s.other.ID)
	s.createProject()

	projects, err := s.projects.ListProjects(s.ctx, s.user, ListProjectsInput{})
	s.Require().NoError(err)
	s.Require().Len(projects, 1)
	s.Equal(mine, projects[0].ID)
	s.Len(projects[0].Members, 2)

	all, err := s.projects.ListProjects(s.ctx, s.moderator, ListProjectsInput{})
	s.Require().NoError(err)
	s.Len(all, 3)

	bad := models.ProjectStatus("nope")
	_, err = s.projects.ListProjects(s.ctx, s.admin, ListProjectsInput{Status: &bad})
	s.True(errors.Is(err, ErrInvalidStatus))
}

func (s *ServiceTestSuite) TestUpdateProject_EmptyUpdateIsNoop() {
	id := s.createProject(s.user.ID)
	before, err := s.projects.ListProjects(s.ctx, s.admin, ListProjectsInput{})
	s.Require().NoError(err)

	after, err := s.projects.UpdateProject(s.ctx, s.moderator, id, UpdateProjectInput{})
	s.Require().NoError(err)
	s.Equal(before[0].Title, after.Title)
	s.Equal(before[0].Description, after.Description)
	s.Equal(before[0].Status, after.Status)
	s.Equal(before[0].Moderator, after.Moderator)
	s.Equal(before[0].Members, after.Members)
}

func (s *ServiceTestSuite) TestUpdateProject_Partial() {
	id := s.createProject(s.user.ID)
	desc := "described"
	_, err := s.projects.UpdateProject(s.ctx, s.moderator, id, UpdateProjectInput{Description: &desc})
	s.Require().NoError(err)

	empty := ""
	completed := models.ProjectStatusCompleted
	members := []uint64{s.other.ID}
	p, err := s.projects.UpdateProject(s.ctx, s.moderator, id, UpdateProjectInput{
		Description: &empty,
		Status:      &completed,
		MemberIDs:   &members,
	})
	s.Require().NoError(err)
	s.Equal("", p.Description)
	s.Equal(models.ProjectStatusCompleted, p.Status)
	s.Equal("Project", p.Title)
	s.Require().Len(p.Members, 1)
	s.Equal(s.other.ID, p.Members[0].ID)
}

func (s *ServiceTestSuite) TestUpdateProject_ModeratorRevalidated() {
	id := s.createProject()

	_, err := s.projects.UpdateProject(s.ctx, s.moderator, id, UpdateProjectInput{ModeratorID: &s.user.ID})
	s.True(errors.Is(err, ErrNotModerator))

	missing := uint64(999)
	_, err = s.projects.UpdateProject(s.ctx, s.moderator, id, UpdateProjectInput{ModeratorID: &missing})
	s.True(errors.Is(err, ErrModeratorNotFound))

	p, err := s.projects.UpdateProject(s.ctx, s.moderator, id, UpdateProjectInput{ModeratorID: &s.admin.ID})
	s.Require().NoError(err)
	s.Equal(s.admin.ID, p.Moderator.ID)

	_, err = s.projects.UpdateProject(s.ctx, s.moderator, 999, UpdateProjectInput{})
	s.True(errors.Is(err, ErrProjectNotFound))
}

func (s *ServiceTestSuite) TestUpdateProject_UnchangedModeratorNotRevalidated() {
	id := s.createProject()
	// The moderator loses the role after the project was created.
	_, err := s.users.UpdateUserRole(s.ctx, s.admin, s.moderator.ID, models.RoleUser)
	s.Require().NoError(err)

	title := "Renamed"
	p, err := s.projects.UpdateProject(s.ctx, s.admin, id, UpdateProjectInput{Title: &title, ModeratorID: &s.moderator.ID})
	s.Require().NoError(err)
	s.Equal("Renamed", p.Title)
}

func (s *ServiceTestSuite) TestDeleteProject_LeavesTasksDangling() {
	projectID := s.createProject()
	taskID := s.createTask(projectID, s.user.ID)

	err := s.projects.DeleteProject(s.ctx, s.moderator, projectID)
	s.requireKind(err, KindForbidden)

	s.Require().NoError(s.projects.DeleteProject(s.ctx, s.admin, projectID))
	s.True(errors.Is(s.projects.DeleteProject(s.ctx, s.admin, projectID), ErrProjectNotFound))

	task, err := s.tasks.GetTask(s.ctx, s.user, taskID)
	s.Require().NoError(err)
	s.Nil(task.Project)
	s.Equal(s.user.ID, task.AssignedTo.ID)
}

func (s *ServiceTestSuite) TestProject_DeletedMemberOmitted() {
	id := s.createProject(s.user.ID, s.other.ID)
	s.Require().NoError(s.users.DeleteUser(s.ctx, s.admin, s.other.ID))

	projects, err := s.projects.ListProjects(s.ctx, s.admin, ListProjectsInput{})
	s.Require().NoError(err)
	s.Require().Len(projects, 1)
	s.Equal(id, projects[0].ID)
	s.Require().Len(projects[0].Members, 1)
	s.Equal(s.user.ID, projects[0].Members[0].ID)
}
