package handlers

import (
	"net/http"

	"github.com/yukikurage/projectly-api/internal/dto"
	"github.com/yukikurage/projectly-api/internal/models"
)

func (s *HandlerTestSuite) TestCreateTask_Success() {
	project := s.createProject(s.user.ID)

	w := s.call(s.tasks.CreateTask, &s.moderator, http.MethodPost, "/api/tasks", map[string]any{
		"title":      "Write docs",
		"project":    project.ID,
		"assignedTo": s.user.ID,
		"dueDate":    "2030-01-15",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var task dto.TaskDTO
	s.decode(w, &task)
	s.Equal("Write docs", task.Title)
	s.Equal("", task.Description)
	s.Equal(models.PriorityMedium, task.Priority)
	s.Equal(models.TaskStatusOpen, task.Status)
	s.Require().NotNil(task.Project)
	s.Equal("Project", task.Project.Title)
	s.Require().NotNil(task.AssignedTo)
	s.Equal("user", task.AssignedTo.Name)
	s.Nil(task.VerifiedBy)
	s.Require().NotNil(task.DueDate)
	s.Equal("2030-01-15", task.DueDate.Format("2006-01-02"))
}

func (s *HandlerTestSuite) TestCreateTask_Validation() {
	project := s.createProject()

	w := s.call(s.tasks.CreateTask, &s.moderator, http.MethodPost, "/api/tasks", map[string]any{
		"title": "Missing refs",
	})
	s.requireError(w, http.StatusBadRequest, "Title, project, and assignedTo are required")

	w = s.call(s.tasks.CreateTask, &s.moderator, http.MethodPost, "/api/tasks", map[string]any{
		"title":      "Bad assignee",
		"project":    project.ID,
		"assignedTo": 9999,
	})
	s.requireError(w, http.StatusNotFound, "Assigned user not found")

	w = s.call(s.tasks.CreateTask, &s.moderator, http.MethodPost, "/api/tasks", map[string]any{
		"title":      "Bad date",
		"project":    project.ID,
		"assignedTo": s.user.ID,
		"dueDate":    "next week",
	})
	apiErr := s.requireError(w, http.StatusBadRequest, "")
	s.Equal(map[string]any{"field": "dueDate"}, apiErr.Details)

	w = s.call(s.tasks.CreateTask, &s.moderator, http.MethodPost, "/api/tasks", map[string]any{
		"title":   "Bad project",
		"project": true,
	})
	apiErr = s.requireError(w, http.StatusBadRequest, "project must be a valid id")
	s.Equal(map[string]any{"field": "project"}, apiErr.Details)
}

func (s *HandlerTestSuite) TestCreateTask_UserForbidden() {
	project := s.createProject()

	w := s.call(s.tasks.CreateTask, &s.user, http.MethodPost, "/api/tasks", map[string]any{
		"title":      "Nope",
		"project":    project.ID,
		"assignedTo": s.user.ID,
	})
	s.requireError(w, http.StatusForbidden, "")
}

func (s *HandlerTestSuite) TestGetTask() {
	project := s.createProject()
	task := s.createTask(project.ID, s.user.ID, models.TaskStatusOpen)

	w := s.call(s.tasks.GetTask, &s.user, http.MethodGet, "/api/tasks/1", nil, idParam(task.ID))
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.call(s.tasks.GetTask, &s.other, http.MethodGet, "/api/tasks/1", nil, idParam(task.ID))
	s.requireError(w, http.StatusForbidden, "Not authorized to view this task")

	w = s.call(s.tasks.GetTask, &s.admin, http.MethodGet, "/api/tasks/9999", nil, idParam(9999))
	s.requireError(w, http.StatusNotFound, "Task not found")
}

func (s *HandlerTestSuite) TestListTasks_ScopedAndFiltered() {
	project := s.createProject()
	s.createTask(project.ID, s.user.ID, models.TaskStatusOpen)
	s.createTask(project.ID, s.user.ID, models.TaskStatusResolved)
	s.createTask(project.ID, s.other.ID, models.TaskStatusOpen)

	var tasks []dto.TaskDTO
	w := s.call(s.tasks.ListTasks, &s.user, http.MethodGet, "/api/tasks", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &tasks)
	s.Len(tasks, 2)

	w = s.call(s.tasks.ListTasks, &s.moderator, http.MethodGet, "/api/tasks?status=open", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &tasks)
	s.Len(tasks, 2)

	w = s.call(s.tasks.ListTasks, &s.moderator, http.MethodGet, "/api/tasks?status=done", nil)
	s.requireError(w, http.StatusBadRequest, "Invalid status")

	w = s.call(s.tasks.ListTasks, &s.moderator, http.MethodGet, "/api/tasks?project=abc", nil)
	s.requireError(w, http.StatusBadRequest, "Invalid project")
}

func (s *HandlerTestSuite) TestUpdateTask_PartialFields() {
	project := s.createProject()
	task := s.createTask(project.ID, s.user.ID, models.TaskStatusOpen)

	w := s.call(s.tasks.UpdateTask, &s.moderator, http.MethodPut, "/api/tasks/1", map[string]any{
		"description": "details",
		"dueDate":     "2031-03-01",
	}, idParam(task.ID))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var updated dto.TaskDTO
	s.decode(w, &updated)
	s.Equal("Task", updated.Title)
	s.Equal("details", updated.Description)
	s.Require().NotNil(updated.DueDate)

	w = s.call(s.tasks.UpdateTask, &s.moderator, http.MethodPut, "/api/tasks/1", map[string]any{
		"dueDate": "",
	}, idParam(task.ID))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &updated)
	s.Nil(updated.DueDate)
	s.Equal("details", updated.Description)

	w = s.call(s.tasks.UpdateTask, &s.user, http.MethodPut, "/api/tasks/1", map[string]any{
		"title": "mine now",
	}, idParam(task.ID))
	s.requireError(w, http.StatusForbidden, "")
}

func (s *HandlerTestSuite) TestStatusWorkflow() {
	project := s.createProject()
	task := s.createTask(project.ID, s.user.ID, models.TaskStatusOpen)
	id := idParam(task.ID)

	w := s.call(s.tasks.UpdateTaskStatus, &s.user, http.MethodPatch, "/status", map[string]any{
		"status": "resolved",
	}, id)
	s.requireError(w, http.StatusBadRequest, "")

	w = s.call(s.tasks.UpdateTaskStatus, &s.other, http.MethodPatch, "/status", map[string]any{
		"status": "in-progress",
	}, id)
	s.requireError(w, http.StatusForbidden, "")

	w = s.call(s.tasks.UpdateTaskStatus, &s.user, http.MethodPatch, "/status", map[string]any{
		"status": "in-progress",
	}, id)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.call(s.tasks.VerifyTask, &s.moderator, http.MethodPatch, "/verify", nil, id)
	s.requireError(w, http.StatusBadRequest, "Task must be resolved before verification")

	w = s.call(s.tasks.UpdateTaskStatus, &s.user, http.MethodPatch, "/status", map[string]any{
		"status":       "resolved",
		"resolvedNote": "fixed in build 42",
	}, id)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.call(s.tasks.VerifyTask, &s.user, http.MethodPatch, "/verify", nil, id)
	s.requireError(w, http.StatusForbidden, "")

	w = s.call(s.tasks.VerifyTask, &s.moderator, http.MethodPatch, "/verify", nil, id)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var verified dto.TaskDTO
	s.decode(w, &verified)
	s.Equal(models.TaskStatusVerified, verified.Status)
	s.Equal("fixed in build 42", verified.ResolvedNote)
	s.Require().NotNil(verified.VerifiedBy)
	s.Equal(s.moderator.ID, verified.VerifiedBy.ID)
	s.Equal("mod", verified.VerifiedBy.Name)
}

func (s *HandlerTestSuite) TestUpdateTaskStatus_EmptyBody() {
	project := s.createProject()
	task := s.createTask(project.ID, s.user.ID, models.TaskStatusOpen)

	w := s.call(s.tasks.UpdateTaskStatus, &s.user, http.MethodPatch, "/status", map[string]any{}, idParam(task.ID))
	s.requireError(w, http.StatusBadRequest, "Status or resolvedNote is required")
}

func (s *HandlerTestSuite) TestDeleteTask() {
	project := s.createProject()
	task := s.createTask(project.ID, s.user.ID, models.TaskStatusOpen)

	w := s.call(s.tasks.DeleteTask, &s.user, http.MethodDelete, "/", nil, idParam(task.ID))
	s.requireError(w, http.StatusForbidden, "")

	w = s.call(s.tasks.DeleteTask, &s.moderator, http.MethodDelete, "/", nil, idParam(task.ID))
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.call(s.tasks.DeleteTask, &s.moderator, http.MethodDelete, "/", nil, idParam(task.ID))
	s.requireError(w, http.StatusNotFound, "Task not found")
}

func (s *HandlerTestSuite) TestSuggestTasks_NotConfigured() {
	project := s.createProject()

	w := s.call(s.tasks.SuggestTasks, &s.moderator, http.MethodPost, "/api/tasks/suggest", map[string]any{
		"project": project.ID,
		"text":    "launch the website",
	})
	s.requireError(w, http.StatusServiceUnavailable, "AI service is not configured")

	w = s.call(s.tasks.SuggestTasks, &s.moderator, http.MethodPost, "/api/tasks/suggest", map[string]any{
		"text": "launch the website",
	})
	s.requireError(w, http.StatusBadRequest, "Project is required")

	w = s.call(s.tasks.SuggestTasks, &s.user, http.MethodPost, "/api/tasks/suggest", map[string]any{
		"project": project.ID,
		"text":    "launch the website",
	})
	s.requireError(w, http.StatusForbidden, "")
}

func (s *HandlerTestSuite) TestTaskDanglingReferences() {
	project := s.createProject()
	task := s.createTask(project.ID, s.other.ID, models.TaskStatusOpen)
	s.Require().NoError(s.db.Delete(&models.User{}, s.other.ID).Error)
	s.Require().NoError(s.db.Delete(&models.Project{}, project.ID).Error)

	w := s.call(s.tasks.GetTask, &s.admin, http.MethodGet, "/", nil, idParam(task.ID))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var got map[string]any
	s.decode(w, &got)
	s.Nil(got["project"])
	s.Nil(got["assignedTo"])
	s.Nil(got["verifiedBy"])
}
