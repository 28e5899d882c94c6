package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sidrstudio/atlas/internal/auth"
	"github.com/sidrstudio/atlas/internal/database"
	"github.com/sidrstudio/atlas/internal/mailer"
	"github.com/sidrstudio/atlas/internal/tasks"
	"github.com/sidrstudio/atlas/pkg/config"
	"github.com/sidrstudio/atlas/pkg/queue"
	"github.com/sidrstudio/atlas/pkg/util"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting atlas worker")

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := util.ValidateCronExpr(cfg.Session.PurgeCron); err != nil {
		logger.Error("invalid SESSION_PURGE_CRON", "error", err)
		os.Exit(1)
	}

	// Create Asynq server and scheduler
	srv := queue.NewServer(&cfg.Redis, 10)
	scheduler := queue.NewScheduler(&cfg.Redis)

	// Wire task handlers
	codec := auth.NewTokenCodec(cfg.Session.Secret)
	smtpMailer := mailer.New(&cfg.SMTP)
	authService := auth.NewService(db, codec, smtpMailer, logger)
	handler := tasks.NewHandler(smtpMailer, authService, logger)

	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Periodic expired session/OTP sweep
	if _, err := scheduler.Register(cfg.Session.PurgeCron, tasks.NewPurgeExpiredTask()); err != nil {
		logger.Error("failed to register purge schedule", "error", err)
		os.Exit(1)
	}

	// Handle shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		scheduler.Shutdown()
		srv.Shutdown()
		cancel()
	}()

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	logger.Info("worker started, waiting for tasks...")

	// Start the server
	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	// Wait for context cancellation
	<-ctx.Done()

	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
