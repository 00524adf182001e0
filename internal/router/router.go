package router

import (
	"github.com/devlink/backend/internal/handlers"
	"github.com/devlink/backend/internal/middleware"
	"github.com/devlink/backend/internal/models"
	"github.com/devlink/backend/internal/repositories"
	"github.com/devlink/backend/internal/services"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, logger *logrus.Logger) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			logger.WithFields(logrus.Fields{
				"method": v.Method,
				"uri":    v.URI,
				"status": v.Status,
			}).Info("request")
			return nil
		},
	}))
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgdb *mongo.Database, logger *logrus.Logger) error {
	// AutoMigrate PostgreSQL models
	if err := pgdb.AutoMigrate(
		&models.Comment{},
		&models.SavedPost{},
		&models.AuditRecord{},
	); err != nil {
		return err
	}

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewMongoUserRepository(mgdb)
	postRepo := repositories.NewMongoPostRepository(mgdb)
	projectRepo := repositories.NewMongoProjectRepository(mgdb)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	savedPostRepo := repositories.NewPostgresSavedPostRepository(pgdb)
	auditRepo := repositories.NewPostgresAuditRecordRepository(pgdb)

	// --- Initialize Services ---
	relationshipService := services.NewRelationshipService(userRepo, logger)
	auditService := services.NewAuditService(userRepo, auditRepo, logger)

	// --- Unprotected routes ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo)
	authHandler.RegisterAuthRoutes(authGroup)

	// Public relationship listings
	public := e.Group("/api/v1")
	relationshipHandler := handlers.NewRelationshipHandler(relationshipService)
	relationshipHandler.RegisterPublicRelationshipRoutes(public)

	// Public project listings
	projectHandler := handlers.NewProjectHandler(projectRepo)
	projectHandler.RegisterPublicProjectRoutes(public)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)
	api.GET("/users/search", userHandler.SearchUsers)

	// Relationship routes
	relationshipHandler.RegisterRelationshipRoutes(api)

	// Post routes
	postHandler := handlers.NewPostHandler(postRepo)
	postHandler.RegisterPostRoutes(api)

	// Comment routes
	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo)
	commentHandler.RegisterCommentRoutes(api)

	// Saved post routes
	savedPostHandler := handlers.NewSavedPostHandler(savedPostRepo, postRepo)
	savedPostHandler.RegisterSavedPostRoutes(api)

	// Project routes
	projectHandler.RegisterProjectRoutes(api)

	// --- Admin routes (require JWT + admin role) ---
	admin := e.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(), middleware.AdminOnly())
	adminHandler := handlers.NewAdminHandler(auditService, auditRepo)
	adminHandler.RegisterAdminRoutes(admin)

	logger.Info("All routes configured.")
	return nil
}
