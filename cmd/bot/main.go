package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/threadscout/engagement-bot/internal/api"
	"github.com/threadscout/engagement-bot/internal/config"
	"github.com/threadscout/engagement-bot/internal/discussion"
	"github.com/threadscout/engagement-bot/internal/keywords"
	"github.com/threadscout/engagement-bot/internal/notifications"
	"github.com/threadscout/engagement-bot/internal/replies"
	"github.com/threadscout/engagement-bot/internal/scheduler"
	"github.com/threadscout/engagement-bot/internal/sources"
	"github.com/threadscout/engagement-bot/internal/storage"
	"github.com/threadscout/engagement-bot/internal/tweets"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting ThreadScout engagement bot")

	ctx := context.Background()

	storageClient, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStorage()

	tweetStore := tweets.NewStore(storageClient)
	if cfg.SeedTweetsFile != "" {
		if err := seedTweets(ctx, tweetStore, cfg.SeedTweetsFile); err != nil {
			logrus.Fatalf("Failed to seed tweets: %v", err)
		}
	}

	provider, err := sources.NewProvider(cfg.DiscussionProvider, cfg.RedditClientID, cfg.RedditClientSecret, cfg.UserAgent)
	if err != nil {
		logrus.Fatalf("Failed to initialize discussion provider: %v", err)
	}

	extractor := keywords.NewExtractor(keywords.NewProseTagger(), cfg.PhraseMappings)
	pipeline := discussion.NewPipeline(extractor, provider, cfg.Location)
	replyService := replies.NewService(storageClient)

	// Initialize digest scheduler
	notificationService := notifications.NewService(cfg)
	schedulerService := scheduler.NewService(cfg.DigestSchedule, cfg.Location, replyService, notificationService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	apiServer := api.NewServer(pipeline, tweetStore, replyService, cfg.SearchTimeout)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SearchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.WithField("provider", pipeline.ProviderName()).Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.StorageInterface, func(), error) {
	switch cfg.StorageBackend {
	case "azure":
		azure, err := storage.NewAzureStorage(ctx, cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			return nil, nil, err
		}
		return azure, func() {}, nil
	default:
		sqlite, err := storage.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqlite, func() {
			if err := sqlite.Close(); err != nil {
				logrus.Errorf("Failed to close SQLite storage: %v", err)
			}
		}, nil
	}
}

func seedTweets(ctx context.Context, store *tweets.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = store.Seed(ctx, f)
	return err
}
