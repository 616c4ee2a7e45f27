package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/auth"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/config"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/flash"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/handler"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/media"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/middleware"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/model"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/repository"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/service"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/upload"
)

func main() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is required")
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}

	mongoClient, err := media.NewMongoClient(cfg.MongoURI)
	if err != nil {
		log.Fatalf("mongo connect error: %v", err)
	}

	listingRepo := repository.NewListingRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	accountRepo := repository.NewAccountRepository(db)

	mediaStore := media.NewGridFSStore(mongoClient, cfg.MongoDB)
	uploads := upload.NewManager(mediaStore, attachmentRepo, cfg.MaxUploadBytes)

	sessions := auth.NewSessions(cfg.SessionSecret)
	tokens := auth.NewTokenSource(cfg.SessionSecret)
	broker := flash.NewBroker(flash.DefaultTTL)

	listingService := service.NewListingService(listingRepo, uploads)
	authService := service.NewAuthService(accountRepo, sessions, tokens, cfg.RegistrationEnabled, cfg.MinPasswordLength)

	// Notification point for downstream collaborators (e.g. price indexing).
	listingService.OnCreated(func(listingID string, l *model.Listing) {
		log.Printf("[listing] created %s by %s (status=%s)", listingID, l.OwnerID, l.Status)
	})

	listingHandler := &handler.ListingHandler{Listings: listingService, Auth: authService, Flash: broker}
	authHandler := &handler.AuthHandler{
		Auth:              authService,
		Flash:             broker,
		LoginRedirectURL:  cfg.LoginRedirectURL,
		LogoutRedirectURL: cfg.LogoutRedirectURL,
	}
	messageHandler := &handler.MessageHandler{Flash: broker}
	mediaHandler := &handler.MediaHandler{Attachments: attachmentRepo, Media: mediaStore}

	r := gin.Default()
	api := r.Group("/api")
	api.Use(middleware.ResolveActor(sessions))

	protected := api.Group("/")
	protected.Use(middleware.RequireAuth())

	admin := api.Group("/")
	admin.Use(middleware.RequireModerator())

	listingHandler.RegisterRoutes(api, protected, admin)
	authHandler.RegisterRoutes(api, protected)
	messageHandler.RegisterRoutes(api)
	mediaHandler.RegisterRoutes(api)

	log.Printf("Listing submission service running on :%s …", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
