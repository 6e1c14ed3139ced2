package router

import (
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/taskdeck-dev/taskdeck/db"
	"github.com/taskdeck-dev/taskdeck/internal/config"
	"github.com/taskdeck-dev/taskdeck/internal/events"
	"github.com/taskdeck-dev/taskdeck/internal/handlers"
	"github.com/taskdeck-dev/taskdeck/internal/metrics"
	"github.com/taskdeck-dev/taskdeck/internal/middleware"
	"github.com/taskdeck-dev/taskdeck/internal/services"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Hub      *events.Hub
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(requestMetrics(deps.Metrics))

	authService := services.NewAuthService(db.DB, deps.Logger, deps.Metrics, deps.Config.Auth.BcryptCost)
	projectService := services.NewProjectService(db.DB, deps.Logger, deps.Metrics)
	membershipService := services.NewMembershipService(db.DB, deps.Logger, deps.Metrics, deps.Hub)
	taskService := services.NewTaskService(db.DB, deps.Logger, deps.Metrics, deps.Hub)

	authHandler := handlers.NewAuthHandler(authService, deps.Config.Server.Domain)
	userHandler := handlers.NewUserHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectService)
	memberHandler := handlers.NewMemberHandler(membershipService)
	taskHandler := handlers.NewTaskHandler(taskService)
	commentHandler := handlers.NewCommentHandler(taskService)
	wsHandler := handlers.NewWSHandler(deps.Hub, deps.Logger)

	limiter := middleware.NewRateLimiter(
		deps.Config.RateLimit.Requests,
		time.Duration(deps.Config.RateLimit.WindowSeconds)*time.Second,
	)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:project_id", middleware.AuthMiddleware(), middleware.RequireProjectMember(), wsHandler.Stream)

		auth := api.Group("/auth")
		{
			auth.POST("/register", limiter.Middleware(), authHandler.Register)
			auth.POST("/login", limiter.Middleware(), authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.AuthMiddleware(), authHandler.Me)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("", userHandler.ListUsers)
			users.PATCH("/:user_id/role", userHandler.UpdateUserRole)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)

			project := projects.Group("/:project_id", middleware.RequireProjectMember())
			{
				project.GET("", projectHandler.GetProject)
				project.PATCH("", middleware.RequireProjectAdmin(), projectHandler.UpdateProject)
				project.DELETE("", middleware.RequireProjectAdmin(), projectHandler.DeleteProject)
				project.GET("/activity", projectHandler.GetActivity)

				project.GET("/members", memberHandler.ListMembers)
				project.POST("/members", middleware.RequireProjectAdmin(), memberHandler.AddMember)
				project.PUT("/members/:user_id", middleware.RequireProjectAdmin(), memberHandler.UpdateMemberRole)
				project.DELETE("/members/:user_id", middleware.RequireProjectAdmin(), memberHandler.RemoveMember)

				project.POST("/tasks", taskHandler.CreateTask)
				project.GET("/tasks", taskHandler.ListTasks)
				project.GET("/tasks/:task_id", taskHandler.GetTask)
				project.PATCH("/tasks/:task_id", taskHandler.UpdateTask)
				project.DELETE("/tasks/:task_id", taskHandler.DeleteTask)

				project.POST("/tasks/:task_id/comments", commentHandler.CreateComment)
				project.GET("/tasks/:task_id/comments", commentHandler.ListComments)
				project.PATCH("/comments/:comment_id", commentHandler.UpdateComment)
				project.DELETE("/comments/:comment_id", commentHandler.DeleteComment)
			}
		}
	}

	return r
}

func requestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.RecordHTTPRequest(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status()))
	}
}
