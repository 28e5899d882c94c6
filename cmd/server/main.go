package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sidrstudio/atlas/internal/api"
	"github.com/sidrstudio/atlas/internal/auth"
	"github.com/sidrstudio/atlas/internal/database"
	"github.com/sidrstudio/atlas/internal/flags"
	"github.com/sidrstudio/atlas/internal/mailer"
	"github.com/sidrstudio/atlas/internal/rbac"
	"github.com/sidrstudio/atlas/internal/storage"
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

	logger.Info("starting atlas server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis, otp email falls back to inline delivery", "error", err)
		redisClient = nil
	}

	// Asynq client for background job enqueuing
	var asynqClient *asynq.Client
	if redisClient != nil {
		asynqClient = queue.NewClient(&cfg.Redis)
	}

	// OTP delivery: enqueue to the worker, send inline when the queue is
	// unavailable
	smtpMailer := mailer.New(&cfg.SMTP)
	otpSender := tasks.NewEnqueuer(asynqClient, smtpMailer, logger)

	// Initialize services
	codec := auth.NewTokenCodec(cfg.Session.Secret)
	authService := auth.NewService(db, codec, otpSender, logger)
	stateSigner := auth.NewStateSigner(cfg.Session.Secret)
	google := auth.NewGoogleAuthenticator(authService, &cfg.Google, stateSigner)
	rbacResolver := rbac.NewResolver(db)
	flagResolver := flags.NewResolver(db)

	// S3 presigned URLs, only when a bucket is configured
	var s3Store *storage.S3Store
	if cfg.S3.Bucket != "" {
		s3Store, err = storage.NewS3Store(context.Background(), &cfg.S3)
		if err != nil {
			logger.Error("failed to create S3 store", "error", err)
			os.Exit(1)
		}
	}

	// Create router
	router := api.NewRouter(api.RouterConfig{
		DB:              db,
		Redis:           redisClient,
		Logger:          logger,
		AuthService:     authService,
		Google:          google,
		RBAC:            rbacResolver,
		Flags:           flagResolver,
		Storage:         s3Store,
		CookieName:      cfg.Session.CookieName,
		RateLimitReqs:   cfg.RateLimit.Requests,
		RateLimitWindow: cfg.RateLimit.Window(),
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if asynqClient != nil {
		asynqClient.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("server stopped")
}
