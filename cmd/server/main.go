package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/yukikurage/projectly-api/internal/auth"
	"github.com/yukikurage/projectly-api/internal/config"
	"github.com/yukikurage/projectly-api/internal/database"
	"github.com/yukikurage/projectly-api/internal/logger"
	"github.com/yukikurage/projectly-api/internal/repository"
	"github.com/yukikurage/projectly-api/internal/router"
	"github.com/yukikurage/projectly-api/internal/services"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file")
	pflag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, cleanup := logger.New(cfg.Log)
	defer cleanup()

	gin.SetMode(cfg.Gin.Mode)

	// Connect to database and run migrations
	db, err := database.Open(cfg.DB, logger.Gorm(log, cfg.DB.LogLevel))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	// Redis backs both the session store and the token denylist
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	store, err := redisStore.NewStore(
		10,                 // Redis pool size
		"tcp",              // network type
		cfg.Redis.Addr(),   // Redis address from config
		cfg.Redis.Password, // password
		[]byte(cfg.Session.Secret),
	)
	if err != nil {
		log.Fatal("failed to create Redis session store", zap.Error(err))
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAI.APIKey != "" {
		aiService = services.NewAIService(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	} else {
		log.Warn("OpenAI API key not set, task suggestions are disabled")
	}

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	r := router.New(router.Deps{
		Log:          log,
		SessionStore: store,
		Tokens:       auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL),
		Denylist:     auth.NewRedisDenylist(rdb),
		CORS:         cfg.CORS,
		RateLimit:    cfg.RateLimit,
		Auth:         services.NewAuthService(userRepo, log),
		Users:        services.NewUserService(userRepo, log),
		Projects:     services.NewProjectService(projectRepo, userRepo, log),
		Tasks:        services.NewTaskService(taskRepo, projectRepo, userRepo, aiService, log),
		Analytics:    services.NewAnalyticsService(projectRepo, taskRepo, userRepo, analyticsRepo, log),
	})

	srv := &http.Server{
		Addr:              cfg.App.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
