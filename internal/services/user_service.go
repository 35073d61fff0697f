package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/projectly-api/internal/models"
	"github.com/yukikurage/projectly-api/internal/policy"
	"github.com/yukikurage/projectly-api/internal/repository"
)

// UserService handles account administration
type UserService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, log *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		log:      log.Named("users"),
	}
}

// CreateUserInput represents input for creating a user
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// UpdateUserInput represents a partial user update
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
}

func authorize(actor policy.Actor, action policy.Action) error {
	if !policy.Authorize(actor, action, policy.Resource{}).Allowed() {
		return ErrForbidden
	}
	return nil
}

// ListUsers returns all users, newest first
func (s *UserService) ListUsers(ctx context.Context, actor policy.Actor, role *models.Role) ([]models.User, error) {
	if err := authorize(actor, policy.ListUsers); err != nil {
		return nil, err
	}
	if role != nil && !role.Valid() {
		return nil, ErrInvalidRole
	}

	users, err := s.userRepo.List(ctx, repository.UserFilter{Role: role})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser returns a single user
func (s *UserService) GetUser(ctx context.Context, actor policy.Actor, id uint64) (*models.User, error) {
	if err := authorize(actor, policy.GetUser); err != nil {
		return nil, err
	}
	return findUser(ctx, s.userRepo, id)
}

// CreateUser creates an account with any role. Role defaults to user.
func (s *UserService) CreateUser(ctx context.Context, actor policy.Actor, input CreateUserInput) (*models.User, error) {
	if err := authorize(actor, policy.CreateUser); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = models.RoleUser
	}

	user, err := createAccount(ctx, s.userRepo, input.Name, input.Email, input.Password, input.Role)
	if err != nil {
		return nil, err
	}

	s.log.Info("user created",
		zap.Uint64("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Uint64("actor_id", actor.ID))
	return user, nil
}

// UpdateUser changes name, email or password
func (s *UserService) UpdateUser(ctx context.Context, actor policy.Actor, id uint64, input UpdateUserInput) (*models.User, error) {
	if err := authorize(actor, policy.UpdateUser); err != nil {
		return nil, err
	}
	if _, err := findUser(ctx, s.userRepo, id); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrUserFieldsNeeded
		}
		changes["name"] = name
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, ErrUserFieldsNeeded
		}
		if err := ensureEmailFree(ctx, s.userRepo, email, id); err != nil {
			return nil, err
		}
		changes["email"] = email
	}
	if input.Password != nil {
		hashed, err := hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		changes["password_hash"] = hashed
	}

	user, err := s.userRepo.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// UpdateUserRole changes the role of a user
func (s *UserService) UpdateUserRole(ctx context.Context, actor policy.Actor, id uint64, role models.Role) (*models.User, error) {
	if err := authorize(actor, policy.UpdateUserRole); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if _, err := findUser(ctx, s.userRepo, id); err != nil {
		return nil, err
	}

	user, err := s.userRepo.Update(ctx, id, map[string]interface{}{"role": role})
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.log.Info("user role changed",
		zap.Uint64("user_id", id),
		zap.String("role", string(role)),
		zap.Uint64("actor_id", actor.ID))
	return user, nil
}

// DeleteUser removes an account. Projects and tasks that reference it are
// left in place.
func (s *UserService) DeleteUser(ctx context.Context, actor policy.Actor, id uint64) error {
	if err := authorize(actor, policy.DeleteUser); err != nil {
		return err
	}
	if id == actor.ID {
		return ErrDeleteSelf
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.log.Info("user deleted", zap.Uint64("user_id", id), zap.Uint64("actor_id", actor.ID))
	return nil
}
