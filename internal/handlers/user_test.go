package handlers

import (
	"net/http"

	"github.com/yukikurage/projectly-api/internal/dto"
	"github.com/yukikurage/projectly-api/internal/models"
)

func (s *HandlerTestSuite) TestListUsers() {
	var users []dto.UserDTO
	w := s.call(s.users.ListUsers, &s.moderator, http.MethodGet, "/api/users", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &users)
	s.Len(users, 4)

	w = s.call(s.users.ListUsers, &s.admin, http.MethodGet, "/api/users?role=moderator", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &users)
	s.Require().Len(users, 1)
	s.Equal(s.moderator.ID, users[0].ID)

	w = s.call(s.users.ListUsers, &s.user, http.MethodGet, "/api/users", nil)
	s.requireError(w, http.StatusForbidden, "")
}

func (s *HandlerTestSuite) TestCreateUser_HidesPassword() {
	w := s.call(s.users.CreateUser, &s.admin, http.MethodPost, "/api/users", map[string]any{
		"name":     "New",
		"email":    "New@Example.com",
		"password": "secret1",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var raw map[string]any
	s.decode(w, &raw)
	s.Equal("new@example.com", raw["email"])
	s.Equal(string(models.RoleUser), raw["role"])
	s.NotContains(raw, "password")
	s.NotContains(raw, "passwordHash")

	w = s.call(s.users.CreateUser, &s.admin, http.MethodPost, "/api/users", map[string]any{
		"name":     "Dup",
		"email":    "new@example.com",
		"password": "secret1",
	})
	s.requireError(w, http.StatusConflict, "User already exists")
}

func (s *HandlerTestSuite) TestUpdateUserRole() {
	w := s.call(s.users.UpdateUserRole, &s.admin, http.MethodPut, "/", map[string]any{
		"role": "moderator",
	}, idParam(s.user.ID))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var user dto.UserDTO
	s.decode(w, &user)
	s.Equal(models.RoleModerator, user.Role)

	w = s.call(s.users.UpdateUserRole, &s.admin, http.MethodPut, "/", map[string]any{
		"role": "owner",
	}, idParam(s.user.ID))
	s.requireError(w, http.StatusBadRequest, "Invalid role")

	w = s.call(s.users.UpdateUserRole, &s.moderator, http.MethodPut, "/", map[string]any{
		"role": "admin",
	}, idParam(s.moderator.ID))
	s.requireError(w, http.StatusForbidden, "")
}

func (s *HandlerTestSuite) TestDeleteUser() {
	w := s.call(s.users.DeleteUser, &s.admin, http.MethodDelete, "/", nil, idParam(s.admin.ID))
	s.requireError(w, http.StatusBadRequest, "You cannot delete your own account")

	w = s.call(s.users.DeleteUser, &s.admin, http.MethodDelete, "/", nil, idParam(s.other.ID))
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.call(s.users.GetUser, &s.admin, http.MethodGet, "/", nil, idParam(s.other.ID))
	s.requireError(w, http.StatusNotFound, "User not found")
}
