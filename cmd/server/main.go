package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dranzer2021/task-management-system/internal/auth"
	"github.com/dranzer2021/task-management-system/internal/config"
	"github.com/dranzer2021/task-management-system/internal/database"
	"github.com/dranzer2021/task-management-system/internal/handlers"
	"github.com/dranzer2021/task-management-system/internal/middleware"
	"github.com/dranzer2021/task-management-system/internal/repository"
	"github.com/dranzer2021/task-management-system/internal/services"
	"github.com/dranzer2021/task-management-system/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		log.Fatalf("Failed to add indexes: %v", err)
	}

	// Attachment artifact store
	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to open upload directory: %v", err)
	}

	// Token service
	tokens, err := auth.NewTokenService(cfg.JWTSecret, time.Duration(cfg.JWTLifetimeMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	// Repositories and services
	taskRepo := repository.NewTaskRepository(database.GetDB())
	userRepo := repository.NewUserRepository(database.GetDB())
	attachmentService := services.NewAttachmentService(taskRepo, store)
	taskService := services.NewTaskService(taskRepo, userRepo, attachmentService)
	authService := services.NewAuthService(userRepo, tokens)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userRepo)
	taskHandler := handlers.NewTaskHandler(taskService)
	attachmentHandler := handlers.NewAttachmentHandler(taskService, attachmentService)

	// Initialize Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Task Management API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.GET("/me", middleware.RequireAuth(tokens), authHandler.Me)
		}

		// User routes (protected, self or admin)
		users := api.Group("/users")
		users.Use(middleware.RequireAuth(tokens))
		{
			users.GET("/:id", middleware.RequireSelfOrAdmin(), userHandler.GetUser)
			users.PUT("/:id", middleware.RequireSelfOrAdmin(), userHandler.UpdateUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth(tokens))
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", middleware.RequireTaskOwnership(), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskOwnership(), taskHandler.DeleteTask)
			tasks.POST("/:id/attachments", middleware.RequireTaskOwnership(), attachmentHandler.Upload)
			tasks.GET("/:id/attachments/:attachmentId", attachmentHandler.Download)
			tasks.DELETE("/:id/attachments/:attachmentId", middleware.RequireTaskOwnership(), attachmentHandler.Delete)
		}
	}

	// Start server
	log.Printf("Server starting on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
