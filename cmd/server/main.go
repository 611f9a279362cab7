package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/mirelhas/task-docs-api/internal/auth"
	"github.com/mirelhas/task-docs-api/internal/config"
	"github.com/mirelhas/task-docs-api/internal/database"
	"github.com/mirelhas/task-docs-api/internal/handlers"
	"github.com/mirelhas/task-docs-api/internal/middleware"
	"github.com/mirelhas/task-docs-api/internal/preview"
	"github.com/mirelhas/task-docs-api/internal/repository"
	"github.com/mirelhas/task-docs-api/internal/services"
	"github.com/mirelhas/task-docs-api/internal/storage"
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

	// Attachment blob store on the local filesystem
	blobs := storage.NewLocalStore(cfg.UploadDir)

	// Preview token registry: Redis when configured so tokens survive
	// restarts and are shared across instances, in-memory otherwise
	var registry preview.Registry
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		registry = preview.NewRedisRegistry(client)
	} else {
		memRegistry := preview.NewMemoryRegistry(cfg.PreviewSweep)
		defer memRegistry.Close()
		registry = memRegistry
	}

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	userRepo := repository.NewUserRepository(database.GetDB())
	taskRepo := repository.NewTaskRepository(database.GetDB())
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo)
	taskService := services.NewTaskService(taskRepo, userRepo, blobs)
	documentService := services.NewDocumentService(blobs, registry, cfg.PreviewTTL)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, jwtService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	documentHandler := handlers.NewDocumentHandler(documentService)

	// Initialize Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Task Docs API is running",
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
			authRoutes.GET("/me", middleware.RequireAuth(jwtService), authHandler.GetCurrentUser)
		}

		// Public preview route: the token in the URL is the only credential
		api.GET("/tasks/public-doc/:token", documentHandler.PublicPreview)

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth(jwtService))
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PUT("/:id", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskAccess(), taskHandler.DeleteTask)
			tasks.GET("/:id/documents/:documentId", middleware.RequireTaskAccess(), documentHandler.DownloadDocument)
			tasks.GET("/:id/preview/:documentId", middleware.RequireTaskAccess(), documentHandler.PreviewDocument)
			tasks.GET("/:id/create-preview-token/:documentId", middleware.RequireTaskAccess(), documentHandler.CreatePreviewToken)
		}

		// User routes (protected; roster management is admin only)
		users := api.Group("/users")
		users.Use(middleware.RequireAuth(jwtService))
		{
			users.PUT("/profile", userHandler.UpdateProfile)
			users.GET("", middleware.RequireAdmin(), userHandler.ListUsers)
			users.POST("", middleware.RequireAdmin(), userHandler.CreateUser)
			users.GET("/:id", middleware.RequireAdmin(), userHandler.GetUser)
			users.PUT("/:id", middleware.RequireAdmin(), userHandler.UpdateUser)
			users.DELETE("/:id", middleware.RequireAdmin(), userHandler.DeleteUser)
		}
	}

	// Start server
	log.Printf("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
