package router

import (
	"fmt"
	"log/slog"

	"github.com/anonto42/nano-midea/socialsync/internal/handlers"
	"github.com/anonto42/nano-midea/socialsync/internal/middleware"
	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/anonto42/nano-midea/socialsync/internal/services"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"github.com/anonto42/nano-midea/socialsync/pkg/config"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Dependencies are the backends the routes are wired against
type Dependencies struct {
	Config   *config.Config
	Store    store.Store
	Postgres *gorm.DB                   // optional drift log
	Verifier middleware.IDTokenVerifier // optional, Firebase only
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	cfg := deps.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	var drifts repositories.DriftRepository
	if deps.Postgres != nil {
		if err := deps.Postgres.AutoMigrate(&models.CounterDrift{}); err != nil {
			return fmt.Errorf("failed to auto migrate models: %w", err)
		}
		slog.Info("PostgreSQL auto-migrations completed")
		drifts = repositories.NewPostgresDriftRepository(deps.Postgres)
	}

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewStoreUserRepository(deps.Store)
	followRepo := repositories.NewStoreFollowRepository(deps.Store)
	postRepo := repositories.NewStorePostRepository(deps.Store)
	likeRepo := repositories.NewStoreLikeRepository(deps.Store)
	commentRepo := repositories.NewStoreCommentRepository(deps.Store)
	notificationRepo := repositories.NewStoreNotificationRepository(deps.Store)
	conversationRepo := repositories.NewStoreConversationRepository(deps.Store)

	// --- Initialize Services ---
	notifier := services.NewNotificationService(notificationRepo)
	identity := services.NewIdentityService(userRepo)
	graph := services.NewFollowGraph(userRepo, followRepo, notifier)
	interactions := services.NewInteractionService(userRepo, postRepo, likeRepo, commentRepo, notifier)
	feed := services.NewFeedService(postRepo, followRepo, cfg.FeedChunkSize)
	messaging := services.NewMessagingService(userRepo, conversationRepo, notifier)
	presence := services.NewPresenceTracker(userRepo, cfg.HeartbeatInterval, cfg.OnlineThreshold)
	searcher := services.NewSearcher(userRepo, postRepo, services.DefaultSearchDebounce)

	var recorder services.DriftRecorder
	if drifts != nil {
		recorder = drifts
	}
	reconciler := services.NewReconciler(userRepo, postRepo, followRepo, likeRepo, commentRepo, recorder)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(identity, deps.Verifier, cfg.JWTSecret, cfg.DevLogin)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	if cfg.AuthMode == config.AuthFirebase && deps.Verifier != nil {
		api.Use(middleware.FirebaseAuthMiddleware(deps.Verifier))
		slog.Info("Firebase authentication middleware applied to /api/v1 group")
	} else {
		api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
		slog.Info("JWT authentication middleware applied to /api/v1 group")
	}

	handlers.NewUserHandler(identity, graph).RegisterProfileRoutes(api)
	handlers.NewFollowHandler(graph).RegisterFollowRoutes(api)
	handlers.NewPostHandler(interactions).RegisterPostRoutes(api)
	handlers.NewLikeHandler(interactions).RegisterLikeRoutes(api)
	handlers.NewCommentHandler(interactions).RegisterCommentRoutes(api)
	handlers.NewFeedHandler(feed).RegisterFeedRoutes(api)
	handlers.NewNotificationHandler(notifier).RegisterNotificationRoutes(api)
	handlers.NewConversationHandler(messaging).RegisterConversationRoutes(api)
	handlers.NewSearchHandler(userRepo, interactions).RegisterSearchRoutes(api)
	handlers.NewLiveHandler(feed, notifier, messaging, interactions, presence, searcher).RegisterLiveRoutes(api)
	admin := api.Group("/admin", middleware.RequireAdmin(cfg.AdminUIDs))
	handlers.NewReconcileHandler(reconciler, drifts).RegisterReconcileRoutes(admin)

	slog.Info("all routes configured", "store", cfg.StoreBackend, "auth", cfg.AuthMode)
	return nil
}
