package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard/internal/middleware"
	"github.com/yukikurage/taskboard/internal/repository"
	"github.com/yukikurage/taskboard/internal/services"
	"gorm.io/gorm"
)

// Services bundles what the router needs.
type Services struct {
	Auth  *services.AuthService
	Tasks *services.TaskService
}

// NewServices builds the gorm-backed services on db.
func NewServices(db *gorm.DB, tokens *services.TokenService) Services {
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	return Services{
		Auth:  services.NewAuthService(userRepo, tokens),
		Tasks: services.NewTaskService(taskRepo, userRepo),
	}
}

// RegisterRoutes mounts the health check and the /api tree on r.
func RegisterRoutes(r *gin.Engine, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Auth)
	taskHandler := NewTaskHandler(svc.Tasks)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Taskboard API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		v1 := api.Group("/v1")
		v1.Use(middleware.RequireAuth(svc.Auth))
		{
			v1.GET("/users", userHandler.ListUsers)

			tasks := v1.Group("/tasks")
			{
				tasks.GET("", taskHandler.ListTasks)
				tasks.POST("", taskHandler.CreateTask)
				tasks.GET("/:id", middleware.RequireTaskAccess(svc.Tasks), taskHandler.GetTask)
				tasks.PUT("/:id", middleware.RequireTaskAccess(svc.Tasks), taskHandler.UpdateTask)
				tasks.DELETE("/:id", middleware.RequireTaskAccess(svc.Tasks), taskHandler.DeleteTask)
			}
		}
	}
}
