package main

import (
	"log"
	"net/http"

	"adforge-backend/internal/config"
	"adforge-backend/internal/database"
	"adforge-backend/internal/export"
	"adforge-backend/internal/handlers"
	"adforge-backend/internal/middleware"
	"adforge-backend/internal/runpod"
	"adforge-backend/internal/services"
	"adforge-backend/internal/storage"
	"adforge-backend/internal/textgen"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	dbClient, err := database.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database client: %v", err)
	}
	defer dbClient.Close()

	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	defer migrator.Close()
	if err := migrator.Run(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations completed successfully")

	// Backend credentials and endpoint ids are resolved once here and
	// injected; nothing below reads the environment.
	imageClient := runpod.NewClient(cfg.RunPodAPIBaseURL, cfg.RunPodAPIKey)
	textClient := textgen.NewClient(cfg.TextAPIBaseURL, cfg.TextAPIKey)

	storageClient, err := storage.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	reconciler := services.NewReconciler(cfg, dbClient, imageClient, storageClient)
	dispatchService := services.NewDispatchService(cfg, dbClient, imageClient, textClient, reconciler)
	exportService := services.NewExportService(dbClient, storageClient, export.NewPackager())

	generationsHandler := handlers.NewGenerationsHandler(dispatchService, reconciler, dbClient)
	exportsHandler := handlers.NewExportsHandler(exportService)
	webhookHandler := handlers.NewWebhookHandler(cfg, reconciler)

	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Generations
	api.POST("/generations", generationsHandler.Create)
	api.GET("/generations", generationsHandler.List)
	api.GET("/generations/:generation_id", generationsHandler.Get)
	api.POST("/generations/:generation_id/variations", generationsHandler.CreateVariation)
	api.PATCH("/generations/:generation_id/favorite", generationsHandler.SetFavorite)

	// Quota
	api.GET("/quota", generationsHandler.GetQuota)

	// Exports
	api.POST("/exports", exportsHandler.Create)
	api.GET("/exports/:export_id", exportsHandler.Get)
	api.GET("/platforms", exportsHandler.ListPlatforms)

	// Webhook (no auth, uses shared token)
	router.POST("/api/v1/webhooks/runpod", webhookHandler.HandleWebhook)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
