package router

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/mattkerbyy/bubbly/backend/internal/auth"
	"github.com/mattkerbyy/bubbly/backend/internal/cache"
	"github.com/mattkerbyy/bubbly/backend/internal/handlers"
	"github.com/mattkerbyy/bubbly/backend/internal/metrics"
	"github.com/mattkerbyy/bubbly/backend/internal/middleware"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/presence"
	"github.com/mattkerbyy/bubbly/backend/internal/realtime"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
	"github.com/mattkerbyy/bubbly/backend/internal/services"
	"github.com/mattkerbyy/bubbly/backend/pkg/config"
	"github.com/mattkerbyy/bubbly/backend/pkg/firebase"
	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
	"github.com/mattkerbyy/bubbly/backend/pkg/storage"
)

// Deps is everything SetupRoutes needs from main.
type Deps struct {
	Config   *config.Config
	DB       *config.DB
	Firebase *firebase.App // nil when Firebase login is disabled
	Metrics  *metrics.Metrics
}

// Migrate creates the PostgreSQL tables and the MongoDB indexes.
func Migrate(ctx context.Context, db *config.DB) error {
	err := db.Postgres.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Share{},
		&models.Reaction{},
		&models.Comment{},
		&models.Notification{},
		&models.Conversation{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("PostgreSQL auto-migrations completed")

	if err := repositories.NewMongoPostRepository(db.MongoDB).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("post indexes: %w", err)
	}
	if err := repositories.NewMongoMessageRepository(db.MongoDB).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("message indexes: %w", err)
	}
	logger.Info("MongoDB indexes ensured")
	return nil
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, d Deps) error {
	cfg := d.Config

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(d.DB.Postgres)
	followRepo := cache.NewRelationCache(repositories.NewPostgresFollowRepository(d.DB.Postgres), d.DB.Redis, cfg.RelationCacheTTL)
	shareRepo := repositories.NewPostgresShareRepository(d.DB.Postgres)
	reactionRepo := repositories.NewPostgresReactionRepository(d.DB.Postgres)
	commentRepo := repositories.NewPostgresCommentRepository(d.DB.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(d.DB.Postgres)
	conversationRepo := repositories.NewPostgresConversationRepository(d.DB.Postgres)
	postRepo := repositories.NewMongoPostRepository(d.DB.MongoDB)
	messageRepo := repositories.NewMongoMessageRepository(d.DB.MongoDB)

	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	// --- Realtime ---
	hub := realtime.NewHub(presence.NewRegistry(), d.Metrics)

	// --- Services ---
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	notifier := services.NewNotificationService(notificationRepo, userRepo, hub)
	authService := services.NewAuthService(userRepo, tokens, d.Firebase, services.LogMailer{}, cfg.ClientURL)
	userService := services.NewUserService(userRepo, followRepo, hub)
	postService := services.NewPostService(postRepo, shareRepo, reactionRepo, commentRepo, userRepo, followRepo, notifier, store)
	shareService := services.NewShareService(shareRepo, postRepo, reactionRepo, commentRepo, userRepo, followRepo, notifier)
	feedService := services.NewFeedService(postRepo, shareRepo, reactionRepo, userRepo, followRepo, d.Metrics)
	reactionService := services.NewReactionService(postRepo, shareRepo, followRepo, reactionRepo, userRepo, notifier)
	commentService := services.NewCommentService(postRepo, shareRepo, followRepo, commentRepo, userRepo, notifier)
	followService := services.NewFollowService(userRepo, followRepo, notifier)
	messageService := services.NewMessageService(conversationRepo, messageRepo, userRepo, hub, hub)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.Static(storage.PublicPrefix, cfg.UploadDir)

	realtime.NewHandler(hub, tokens, messageService, cfg.WSEventsPerSecond, cfg.CORSOrigins).RegisterRoutes(e)
	logger.Info("Realtime endpoint configured")

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(authService).RegisterAuthRoutes(authGroup)
	logger.Info("Auth routes configured")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(tokens))

	handlers.NewUserHandler(userService, postService).RegisterUserRoutes(api)
	handlers.NewPostHandler(postService).RegisterPostRoutes(api)
	handlers.NewShareHandler(shareService).RegisterShareRoutes(api)
	handlers.NewFeedHandler(feedService).RegisterFeedRoutes(api)
	handlers.NewReactionHandler(reactionService).RegisterReactionRoutes(api)
	handlers.NewCommentHandler(commentService).RegisterCommentRoutes(api)
	handlers.NewFollowHandler(followService).RegisterFollowRoutes(api)
	handlers.NewNotificationHandler(notifier).RegisterNotificationRoutes(api)
	handlers.NewMessageHandler(messageService).RegisterMessageRoutes(api)

	logger.Info("All routes configured")
	return nil
}
