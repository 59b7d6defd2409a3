package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/storage/redis/v3"

	"medivault/internal/cache"
	"medivault/internal/config"
	"medivault/internal/db"
	"medivault/internal/email"
	"medivault/internal/metrics"
	"medivault/internal/server"
	"medivault/internal/sharing"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	metrics.Init()

	// Redis backs sessions and the share-listing cache when configured.
	// Keep the interface nil (not a typed nil) when it is not.
	var storage fiber.Storage
	var listings *cache.Listings
	var listingCache sharing.ListingCache
	if cfg.RedisURL != "" {
		storage = redis.New(redis.Config{URL: cfg.RedisURL})
		listings = cache.New(storage)
		listingCache = listings
		log.Println("Redis connected: sessions and share-listing cache enabled")
	} else {
		log.Println("REDIS_URL not set: using in-memory sessions, share-listing cache disabled")
	}

	svc := sharing.New(database, listingCache)
	notifier := email.NewNotifier(cfg)
	if !cfg.IsEmailEnabled() {
		log.Println("SMTP not configured: share notifications disabled")
	}

	srv := server.New(cfg, storage)
	if err := srv.RegisterRoutes(ctx, database, svc, listings, notifier); err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server started on %s", cfg.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
