package services

import (
	"errors"

	"github.com/yukikurage/projectly-api/internal/models"
)

func (s *ServiceTestSuite) TestRegisterAndLogin() {
	u, err := s.auth.Register(s.ctx, RegisterInput{Name: "Zed", Email: " Zed@Example.com ", Password: "secret1"})
	s.Require().NoError(err)
	s.Equal("zed@example.com", u.Email)
	s.Equal(models.RoleUser, u.Role)
	s.NotEqual("secret1", u.PasswordHash)

	_, err = s.auth.Register(s.ctx, RegisterInput{Name: "Zed", Email: "zed@example.com", Password: "secret1"})
	s.requireKind(err, KindConflict)

	_, err = s.auth.Register(s.ctx, RegisterInput{Name: "Y", Email: "y@example.com", Password: "123"})
	s.True(errors.Is(err, ErrPasswordTooShort))

	logged, err := s.auth.Login(s.ctx, LoginInput{Email: "ZED@example.com", Password: "secret1"})
	s.Require().NoError(err)
	s.Equal(u.ID, logged.ID)

	_, err = s.auth.Login(s.ctx, LoginInput{Email: "zed@example.com", Password: "wrong!!"})
	s.True(errors.Is(err, ErrInvalidCredentials))
	_, err = s.auth.Login(s.ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"})
	s.True(errors.Is(err, ErrInvalidCredentials))
}

func (s *ServiceTestSuite) TestUserAdministration() {
	_, err := s.users.ListUsers(s.ctx, s.user, nil)
	s.requireKind(err, KindForbidden)

	list, err := s.users.ListUsers(s.ctx, s.moderator, nil)
	s.Require().NoError(err)
	s.Len(list, 4)

	_, err = s.users.CreateUser(s.ctx, s.moderator, CreateUserInput{Name: "n", Email: "n@example.com", Password: "secret1"})
	s.requireKind(err, KindForbidden)

	created, err := s.users.CreateUser(s.ctx, s.admin, CreateUserInput{Name: "n", Email: "n@example.com", Password: "secret1"})
	s.Require().NoError(err)
	s.Equal(models.RoleUser, created.Role)

	_, err = s.users.CreateUser(s.ctx, s.admin, CreateUserInput{Name: "n", Email: "m@example.com", Password: "secret1", Role: "owner"})
	s.True(errors.Is(err, ErrInvalidRole))

	name := "renamed"
	email := "user@example.com"
	_, err = s.users.UpdateUser(s.ctx, s.admin, created.ID, UpdateUserInput{Email: &email})
	s.True(errors.Is(err, ErrEmailTaken))

	updated, err := s.users.UpdateUser(s.ctx, s.admin, created.ID, UpdateUserInput{Name: &name})
	s.Require().NoError(err)
	s.Equal("renamed", updated.Name)
	s.Equal("n@example.com", updated.Email)

	promoted, err := s.users.UpdateUserRole(s.ctx, s.admin, created.ID, models.RoleModerator)
	s.Require().NoError(err)
	s.Equal(models.RoleModerator, promoted.Role)

	_, err = s.users.UpdateUserRole(s.ctx, s.admin, created.ID, "root")
	s.True(errors.Is(err, ErrInvalidRole))

	s.True(errors.Is(s.users.DeleteUser(s.ctx, s.admin, s.admin.ID), ErrDeleteSelf))
	s.Require().NoError(s.users.DeleteUser(s.ctx, s.admin, created.ID))
	s.True(errors.Is(s.users.DeleteUser(s.ctx, s.admin, created.ID), ErrUserNotFound))

	_, err = s.users.GetUser(s.ctx, s.admin, created.ID)
	s.True(errors.Is(err, ErrUserNotFound))
}
