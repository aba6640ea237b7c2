package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"github.com/smartforge-lab/smartforge/internal/api"
	"github.com/smartforge-lab/smartforge/internal/api/middleware"
	"github.com/smartforge-lab/smartforge/internal/config"
	"github.com/smartforge-lab/smartforge/internal/database"
	"github.com/smartforge-lab/smartforge/internal/server"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	var showVersion = flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		log.Printf("SmartForge API Server\n")
		log.Printf("Version: %s\n", Version)
		log.Printf("Commit: %s\n", CommitHash)
		log.Printf("Built: %s\n", BuildTime)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	var db *database.Database
	if cfg.PostgresURL != "" {
		db, err = database.NewPostgresDatabase(cfg.PostgresURL)
	} else {
		db, err = database.NewSqliteDatabase(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	services, solc, payments := server.InitializeServices(db.DB, cfg)

	authConfig := middleware.AuthConfig{
		AppID: cfg.PrivyAppID,
		Users: services.Users,
	}
	if cfg.PrivyVerificationKey != "" {
		key, err := jwt.ParseECPublicKeyFromPEM([]byte(cfg.PrivyVerificationKey))
		if err != nil {
			log.Fatal("Failed to parse auth verification key:", err)
		}
		authConfig.VerificationKey = key
	}

	apiServer := api.NewAPIServer(cfg, services, solc, payments, authConfig)

	port, err := apiServer.Start(cfg.Port)
	if err != nil {
		log.Fatal("Failed to start API server:", err)
	}
	log.Printf("API server started on port %d\n", port)

	// Sweep expired subscriptions in the background
	expiryTicker := time.NewTicker(time.Hour)
	defer expiryTicker.Stop()
	go func() {
		for range expiryTicker.C {
			if count, err := services.Subscriptions.ExpireOverdue(); err != nil {
				logrus.WithError(err).Error("failed to expire subscriptions")
			} else if count > 0 {
				logrus.WithField("count", count).Info("expired subscriptions")
			}
		}
	}()

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("\nShutting down server...")

	if err := apiServer.Shutdown(); err != nil {
		log.Printf("Error shutting down API server: %v", err)
	}

	log.Println("Server shut down successfully")
}
