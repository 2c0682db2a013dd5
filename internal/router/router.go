package router

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/arman306/storyloop/backend/internal/handlers"
	"github.com/arman306/storyloop/backend/internal/identity"
	"github.com/arman306/storyloop/backend/internal/middleware"
	"github.com/arman306/storyloop/backend/internal/models"
	"github.com/arman306/storyloop/backend/internal/moderation"
	"github.com/arman306/storyloop/backend/internal/notify"
	"github.com/arman306/storyloop/backend/internal/realtime"
	"github.com/arman306/storyloop/backend/internal/repositories"
	"github.com/arman306/storyloop/backend/internal/services"
	"github.com/arman306/storyloop/backend/internal/storage"
	"github.com/arman306/storyloop/backend/internal/sweeper"
	"github.com/arman306/storyloop/backend/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// Dependencies bundles the external clients the routes are built over.
type Dependencies struct {
	Config     *config.Config
	DB         *config.DB
	AuthClient *auth.Client
	MediaStore storage.MediaStore
	Notifier   notify.Notifier
	Filter     moderation.ContentFilter
	Log        *zap.Logger
}

// SetupRoutes configures all application routes, wires the dependency graph
// and starts the background workers. The returned Hub serves feed
// subscriptions; the workers stop when ctx is cancelled.
func SetupRoutes(ctx context.Context, e *echo.Echo, deps Dependencies) (*realtime.Hub, error) {
	log := deps.Log

	// AutoMigrate PostgreSQL models
	err := deps.DB.Postgres.AutoMigrate(
		&models.Comment{},
		&models.StoryView{},
		&models.DeviceToken{},
	)
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL auto-migrations completed for all models")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize repositories ---
	mongoDB := deps.DB.Mongo.Database(deps.Config.MongoDatabase)
	storyRepo := repositories.NewStoryRepository(mongoDB)
	highlightRepo := repositories.NewHighlightRepository(mongoDB)
	commentRepo := repositories.NewPostgresCommentRepository(deps.DB.Postgres)
	viewRepo := repositories.NewPostgresViewRepository(deps.DB.Postgres)
	deviceTokenRepo := repositories.NewPostgresDeviceTokenRepository(deps.DB.Postgres)

	// --- Subscription hub ---
	hub := realtime.NewHub(deps.DB.Redis, storyRepo.GetActiveStories, log)
	go hub.Run(ctx)

	// --- Services ---
	thumbnailer := services.NewFFmpegThumbnailer(deps.Config.FFmpegPath, deps.Config.FFprobePath)
	storyService := services.NewStoryService(
		storyRepo, deps.MediaStore, deps.Filter, thumbnailer, hub,
		deps.Config.PublicOrigin, deps.Config.MaxUploadBytes, log)
	engagementService := services.NewEngagementService(
		storyRepo, commentRepo, viewRepo, deps.Filter, deps.Notifier, log)
	highlightService := services.NewHighlightService(highlightRepo, storyRepo, log)
	viewerIdentity := identity.NewViewerIdentity(identity.NewRedisKV(deps.DB.Redis))

	// --- Expiration sweep ---
	storySweeper := sweeper.New(
		storyRepo, deps.MediaStore, hub,
		deps.Config.SweepInterval, deps.Config.OrphanGracePeriod, log)
	go storySweeper.Run(ctx)
	log.Info("expiration sweep started", zap.Duration("interval", deps.Config.SweepInterval))

	// --- Public share link, unauthenticated ---
	publicHandler := handlers.NewPublicHandler(storyService, engagementService, viewerIdentity, log)
	publicHandler.RegisterPublicRoutes(e)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	api.Use(middleware.FirebaseAuthMiddleware(deps.AuthClient))

	storyHandler := handlers.NewStoryHandler(storyService, engagementService)
	storyHandler.RegisterStoryRoutes(api)

	commentHandler := handlers.NewCommentHandler(engagementService)
	commentHandler.RegisterCommentRoutes(api)

	highlightHandler := handlers.NewHighlightHandler(highlightService)
	highlightHandler.RegisterHighlightRoutes(api)

	deviceHandler := handlers.NewDeviceHandler(deviceTokenRepo)
	deviceHandler.RegisterDeviceRoutes(api)

	log.Info("All routes configured")
	return hub, nil
}
