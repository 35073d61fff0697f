// Command admin creates an account or changes its role directly in the
// database, so that the first administrator can be set up.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/projectly-api/internal/config"
	"github.com/yukikurage/projectly-api/internal/database"
	"github.com/yukikurage/projectly-api/internal/logger"
	"github.com/yukikurage/projectly-api/internal/models"
	"github.com/yukikurage/projectly-api/internal/policy"
	"github.com/yukikurage/projectly-api/internal/repository"
	"github.com/yukikurage/projectly-api/internal/services"
)

func main() {
	var (
		configPath = pflag.String("config", "", "path to a YAML config file")
		email      = pflag.String("email", "", "account e-mail (required)")
		name       = pflag.String("name", "", "display name, used when the account is created")
		password   = pflag.String("password", "", "password, used when the account is created")
		role       = pflag.String("role", string(models.RoleAdmin), "role to grant: user, moderator or admin")
	)
	pflag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "--email is required")
		pflag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, cleanup := logger.New(cfg.Log)
	defer cleanup()

	db, err := database.Open(cfg.DB, logger.Gorm(log, cfg.DB.LogLevel))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	user, created, err := ensureAccount(context.Background(), db, log, accountInput{
		Email:    *email,
		Name:     *name,
		Password: *password,
		Role:     models.Role(*role),
	})
	if err != nil {
		log.Fatal("failed to set up account", zap.String("email", *email), zap.Error(err))
	}

	if created {
		log.Info("account created", zap.Uint64("user_id", user.ID), zap.String("role", string(user.Role)))
	} else {
		log.Info("account role updated", zap.Uint64("user_id", user.ID), zap.String("role", string(user.Role)))
	}
}

type accountInput struct {
	Email    string
	Name     string
	Password string
	Role     models.Role
}

// ensureAccount creates the account, or changes its role when the e-mail is
// already registered. It runs with administrator rights.
func ensureAccount(ctx context.Context, db *gorm.DB, log *zap.Logger, input accountInput) (*models.User, bool, error) {
	userRepo := repository.NewUserRepository(db)
	users := services.NewUserService(userRepo, log)
	system := policy.Actor{Role: models.RoleAdmin}

	existing, err := userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	switch {
	case err == nil:
		user, err := users.UpdateUserRole(ctx, system, existing.ID, input.Role)
		return user, false, err
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}

	name := input.Name
	if name == "" {
		name = strings.SplitN(input.Email, "@", 2)[0]
	}
	user, err := users.CreateUser(ctx, system, services.CreateUserInput{
		Name:     name,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	})
	return user, true, err
}
