package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yukikurage/projectly-api/internal/auth"
	"github.com/yukikurage/projectly-api/internal/config"
	"github.com/yukikurage/projectly-api/internal/constants"
	"github.com/yukikurage/projectly-api/internal/handlers"
	"github.com/yukikurage/projectly-api/internal/middleware"
	"github.com/yukikurage/projectly-api/internal/services"
)

// Deps holds everything the HTTP surface needs.
type Deps struct {
	Log          *zap.Logger
	SessionStore sessions.Store
	Tokens       *auth.TokenIssuer
	Denylist     auth.Denylist
	CORS         config.CORSConfig
	RateLimit    config.RateLimitConfig

	Auth      *services.AuthService
	Users     *services.UserService
	Projects  *services.ProjectService
	Tasks     *services.TaskService
	Analytics *services.AnalyticsService
}

// New builds the gin engine with middleware and every API route.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(ginzap.Ginzap(d.Log, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(d.Log, true))
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(sessions.Sessions(constants.SessionCookieName, d.SessionStore))

	authn := middleware.NewAuthenticator(d.Tokens, d.Denylist, d.Auth, d.Log)
	requireAuth := authn.RequireAuth()

	authHandler := handlers.NewAuthHandler(d.Auth, d.Tokens, d.Denylist, d.Log)
	userHandler := handlers.NewUserHandler(d.Users, d.Log)
	projectHandler := handlers.NewProjectHandler(d.Projects, d.Log)
	taskHandler := handlers.NewTaskHandler(d.Tasks, d.Log)
	analyticsHandler := handlers.NewAnalyticsHandler(d.Analytics, d.Log)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Projectly API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Auth routes (rate limited)
		authGroup := api.Group("/auth")
		authGroup.Use(middleware.RateLimitPerIP(rate.Limit(d.RateLimit.AuthRPS), d.RateLimit.AuthBurst))
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", requireAuth, authHandler.Logout)
			authGroup.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHandler.ListUsers)
			users.POST("", userHandler.CreateUser)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.PUT("/:id/role", userHandler.UpdateUserRole)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("", projectHandler.ListProjects)
			projects.POST("", projectHandler.CreateProject)
			projects.PUT("/:id", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/suggest", taskHandler.SuggestTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.PATCH("/:id/status", taskHandler.UpdateTaskStatus)
			tasks.PATCH("/:id/verify", taskHandler.VerifyTask)
		}

		api.GET("/dashboard", requireAuth, analyticsHandler.Dashboard)
		api.GET("/analytics", requireAuth, analyticsHandler.Analytics)
	}

	return r
}
