package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"

	"anivault/api"
	"anivault/config"
	"anivault/handlers"
	"anivault/services/catalog"
	"anivault/services/discover"
	"anivault/services/integrity"
	"anivault/services/profiles"
	"anivault/services/progress"
	"anivault/services/reviews"
	"anivault/services/watchlist"
	"anivault/utils"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	// Determine config path (env or default)
	configPath := os.Getenv("ANIVAULT_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Apply port override if specified
	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Set up logging with rotation
	logOut := io.Writer(os.Stdout)
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			logOut = io.MultiWriter(os.Stdout, fileWriter)
		}
	}
	logger := utils.NewLogger(settings.Log.Level, logOut)

	// Construct services over the shared storage directory
	if err := os.MkdirAll(settings.Storage.Directory, 0o755); err != nil {
		log.Fatalf("failed to create storage directory: %v", err)
	}

	catalogSvc, err := catalog.NewService(settings.Storage.Directory)
	if err != nil {
		log.Fatalf("failed to init catalog service: %v", err)
	}
	profilesSvc, err := profiles.NewService(settings.Storage.Directory)
	if err != nil {
		log.Fatalf("failed to init profiles service: %v", err)
	}
	watchlistSvc, err := watchlist.NewService(settings.Storage.Directory)
	if err != nil {
		log.Fatalf("failed to init watchlist service: %v", err)
	}
	progressSvc, err := progress.NewService(settings.Storage.Directory)
	if err != nil {
		log.Fatalf("failed to init progress service: %v", err)
	}
	reviewsSvc, err := reviews.NewService(settings.Storage.Directory)
	if err != nil {
		log.Fatalf("failed to init reviews service: %v", err)
	}

	integritySvc := integrity.NewService(catalogSvc, profilesSvc, watchlistSvc, progressSvc, reviewsSvc, logger)
	discoverSvc := discover.NewService(catalogSvc, progressSvc, discover.Options{
		DefaultFeaturedLimit: settings.Discover.FeaturedLimit,
		DefaultTrendingLimit: settings.Discover.TrendingLimit,
		TrendingWindow:       settings.TrendingWindow(),
		CacheTTL:             settings.ShelfCacheTTL(),
	})

	// Construct router and register API routes
	r := mux.NewRouter()
	api.Register(
		r,
		handlers.NewTitlesHandler(catalogSvc, integritySvc),
		handlers.NewEpisodesHandler(catalogSvc, integritySvc),
		handlers.NewProfilesHandler(profilesSvc, integritySvc),
		handlers.NewWatchlistHandler(watchlistSvc, integritySvc),
		handlers.NewProgressHandler(progressSvc, integritySvc),
		handlers.NewReviewsHandler(reviewsSvc, integritySvc),
		handlers.NewDiscoverHandler(discoverSvc),
		profilesSvc,
		logger,
		settings.RequestTimeout(),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	logger.WithField("addr", addr).Info("server starting")

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: settings.RequestTimeout() + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownChan
	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server shutdown error")
	}

	logger.Info("shutdown complete")
}
