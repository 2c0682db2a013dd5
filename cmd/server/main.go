package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/arman306/storyloop/backend/internal/moderation"
	"github.com/arman306/storyloop/backend/internal/notify"
	"github.com/arman306/storyloop/backend/internal/repositories"
	"github.com/arman306/storyloop/backend/internal/router"
	"github.com/arman306/storyloop/backend/internal/storage"
	"github.com/arman306/storyloop/backend/pkg/config"
	"github.com/arman306/storyloop/backend/pkg/firebase"
	"github.com/arman306/storyloop/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zlog := logger.New(cfg.Env)
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Initialize object storage for story media
	mediaStore, err := storage.NewMinioStore(
		cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Moderation collaborator; pass-through when not configured
	var filter moderation.ContentFilter = moderation.AllowAll{}
	if cfg.ModerationURL != "" {
		filter = moderation.NewHTTPFilter(cfg.ModerationURL)
	}

	// Push notifications over FCM
	deviceTokenRepo := repositories.NewPostgresDeviceTokenRepository(db.Postgres)
	notifier := notify.NewFCMNotifier(
		firebaseApp.MessagingClient,
		func(ctx context.Context, userID string) ([]string, error) {
			return deviceTokenRepo.GetTokensByUserID(userID)
		},
		zlog,
	)

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes, dependencies and background workers
	_, err = router.SetupRoutes(ctx, e, router.Dependencies{
		Config:     cfg,
		DB:         db,
		AuthClient: firebaseApp.AuthClient,
		MediaStore: mediaStore,
		Notifier:   notifier,
		Filter:     filter,
		Log:        zlog,
	})
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	zlog.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
