package main

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/yukikurage/taskboard/internal/config"
	"github.com/yukikurage/taskboard/internal/database"
	"github.com/yukikurage/taskboard/internal/handlers"
	"github.com/yukikurage/taskboard/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(database.GetDB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if cfg.JWTSecret == "default-secret-key-change-me" {
		log.Warn("JWT_SECRET is not set; using the development default")
	}
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	// Initialize Gin router
	r := gin.Default()
	handlers.RegisterRoutes(r, handlers.NewServices(database.GetDB(), tokens))

	// Start server
	addr := ":" + cfg.Port
	log.WithField("addr", addr).Info("Server starting")
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
