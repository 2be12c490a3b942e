package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"artworks/crawler/internal/config"
	"artworks/crawler/internal/container"
	"artworks/crawler/internal/logging"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Load configuration using viper
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	log.Info("Starting artworks crawler...")
	log.Infof("Configuration loaded successfully, targets: %v", cfg.Crawler.TargetCategories)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize container with all dependencies
	app, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	// Run the application
	if err := app.Run(ctx); err != nil {
		app.Close()
		log.Fatalf("Application exited with error: %v", err)
	}

	log.Info("Application finished successfully")
}
