package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Minpi-0/Health-Tracker/internal/api"
	"github.com/Minpi-0/Health-Tracker/internal/auth"
	"github.com/Minpi-0/Health-Tracker/internal/config"
	"github.com/Minpi-0/Health-Tracker/internal/storage"
	mongostore "github.com/Minpi-0/Health-Tracker/internal/store/mongo"
	"github.com/Minpi-0/Health-Tracker/internal/tracker"
	"github.com/Minpi-0/Health-Tracker/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron"
)

// @title Health Tracker API
// @version 1.0
// @description API for personal workout and diet tracking with plan-scoped journals.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log := logger.New()
	defer log.Sync()
	log.Infow("starting health tracker server")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalw("could not load config", "error", err)
	}

	// --- Database Connection ---
	dbClient, err := mongostore.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalw("could not connect to MongoDB", "error", err)
	}
	defer func() {
		log.Infow("disconnecting MongoDB")
		if err := mongostore.DisconnectDB(dbClient); err != nil {
			log.Errorw("failed to disconnect MongoDB", "error", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Infow("database connection established", "database", cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := mongostore.EnsureDocumentIndexes(ctx, appDB); err != nil {
			log.Errorw("index creation failed", "error", err)
			return
		}
		log.Infow("index creation process completed")
	}()

	// --- Document Store ---
	docStore := mongostore.NewMongoDocumentStore(appDB, log)

	// --- Object Storage and Archiver ---
	var archiver *storage.Archiver
	if cfg.S3.BucketName != "" {
		objects, err := storage.NewS3Storage(cfg.S3, log)
		if err != nil {
			log.Fatalw("failed to initialize S3 storage", "error", err)
		}
		archiver = storage.NewArchiver(objects, docStore, log)
	} else {
		log.Warnw("no S3 bucket configured, plan archiving disabled")
	}

	// --- Services ---
	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.SessionExpiration)

	var planArchiver tracker.PlanArchiver
	if archiver != nil {
		planArchiver = archiver
	}
	manager := tracker.NewManager(cfg.App.TenantID, docStore, planArchiver, log)
	authSub := authService.OnAuthChange(manager.HandleAuthEvent)
	defer authSub.Unsubscribe()

	// --- Nightly Backup ---
	scheduler := cron.New()
	if archiver != nil {
		if err := scheduler.AddFunc(cfg.App.ArchiveSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if err := archiver.SnapshotAll(ctx); err != nil {
				log.Errorw("document snapshot run failed", "error", err)
			}
		}); err != nil {
			log.Fatalw("invalid archive schedule", "schedule", cfg.App.ArchiveSchedule, "error", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// --- Gin Engine and Routes ---
	router := gin.Default() // Includes Logger and Recovery middleware
	api.SetupRoutes(router, authService, manager, cfg.Auth.BootstrapToken)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infow("server starting", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("listen and serve error", "error", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	// Release every session's change-stream listeners before the client
	// disconnects.
	manager.CloseAll()
	log.Infow("server exiting")
}
