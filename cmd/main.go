package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Beliver-247/photoBooth-server/internal/config"
	"github.com/Beliver-247/photoBooth-server/internal/domain"
	"github.com/Beliver-247/photoBooth-server/internal/handler"
	"github.com/Beliver-247/photoBooth-server/internal/handler/middleware"
	"github.com/Beliver-247/photoBooth-server/internal/repository"
	"github.com/Beliver-247/photoBooth-server/internal/repository/memory"
	"github.com/Beliver-247/photoBooth-server/internal/repository/postgres"
	"github.com/Beliver-247/photoBooth-server/internal/service"
	"github.com/Beliver-247/photoBooth-server/pkg/assetstore"
	"github.com/Beliver-247/photoBooth-server/pkg/compositor"
	"github.com/Beliver-247/photoBooth-server/pkg/email"
	"github.com/Beliver-247/photoBooth-server/pkg/logger"
	"github.com/Beliver-247/photoBooth-server/pkg/reelcache"
	"github.com/Beliver-247/photoBooth-server/pkg/slug"
	"github.com/Beliver-247/photoBooth-server/pkg/sms"
	"github.com/Beliver-247/photoBooth-server/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.NewLogger(cfg.Log.Level, cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// Session store
	var sessionRepo repository.SessionRepository
	switch cfg.Database.Driver {
	case config.StorageDriverPostgres:
		db, err := initDB(cfg, zlog)
		if err != nil {
			zlog.Fatal("failed to initialize database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				zlog.Error("error closing database connection", zap.Error(err))
			}
		}()
		zlog.Info("database connection established")

		if cfg.Database.Migrations {
			if err := postgres.Migrate(db); err != nil {
				zlog.Fatal("failed to run migrations", zap.Error(err))
			}
			zlog.Info("migrations applied")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = postgres.ReconcileSlugIndex(ctx, db, zlog)
		cancel()
		if err != nil {
			zlog.Fatal("failed to reconcile slug index", zap.Error(err))
		}

		sessionRepo = postgres.NewSessionRepository(db)
	default:
		zlog.Warn("using in-memory session store; sessions are lost on restart")
		sessionRepo = memory.NewSessionRepository()
	}

	// Reel cache (optional)
	var cache service.ReelCache
	var cachePinger handler.Pinger
	if cfg.Redis.Enabled {
		redisClient, err := initRedis(cfg)
		if err != nil {
			zlog.Fatal("failed to initialize Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zlog.Error("error closing Redis connection", zap.Error(err))
			}
		}()
		reelCache := reelcache.New(redisClient, cfg.Redis.CacheTTL)
		cache = reelCache
		cachePinger = reelCache
		zlog.Info("reel cache enabled", zap.String("addr", cfg.Redis.Addr()), zap.Duration("ttl", cfg.Redis.CacheTTL))
	}

	// Asset store and reel engine
	store, err := assetstore.NewCloudinaryStore(assetstore.Config{
		CloudName: cfg.Cloudinary.CloudName,
		APIKey:    cfg.Cloudinary.APIKey,
		APISecret: cfg.Cloudinary.APISecret,
		Timeout:   cfg.Reel.NetworkTimeout,
	}, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize asset store", zap.Error(err))
	}

	reelService := service.NewReelService(store, compositor.New(domain.DefaultLayout), service.ReelConfig{
		Layout:  domain.DefaultLayout,
		Folder:  cfg.Cloudinary.Folder,
		Timeout: cfg.Reel.NetworkTimeout,
	}, zlog)

	// Notification channels
	notifiers := service.Notifiers{}
	if cfg.Email.Enabled {
		sender, err := initEmail(cfg, zlog)
		if err != nil {
			zlog.Warn("email channel disabled", zap.Error(err))
		} else {
			notifiers.Email = sender
			zlog.Info("email channel enabled", zap.String("provider", cfg.Email.Provider))
		}
	} else {
		zlog.Info("email channel disabled (set EMAIL_ENABLED=true to enable)")
	}

	if cfg.SMS.Enabled {
		sender, err := sms.NewTwilioSender(sms.Config{
			AccountSID: cfg.SMS.AccountSID,
			AuthToken:  cfg.SMS.AuthToken,
			FromNumber: cfg.SMS.FromNumber,
		}, zlog)
		if err != nil {
			zlog.Warn("sms channel disabled", zap.Error(err))
		} else {
			notifiers.SMS = sender
			zlog.Info("sms channel enabled")
		}
	} else {
		zlog.Info("sms channel disabled (set SMS_ENABLED=true to enable)")
	}

	sessionService := service.NewSessionService(
		sessionRepo,
		reelService,
		store,
		slug.NanoID{},
		notifiers,
		cache,
		service.SessionConfig{
			BasePublicURL:   cfg.Server.BasePublicURL,
			UploadFolder:    cfg.Cloudinary.Folder,
			SlugMaxAttempts: cfg.Reel.SlugMaxAttempts,
			NotifyTimeout:   cfg.Email.Timeout,
		},
		zlog,
	)

	// Initialize handlers
	validate := validator.NewValidator()
	sessionHandler := handler.NewSessionHandler(sessionService, validate, zlog)
	publicHandler := handler.NewPublicHandler(sessionService, zlog)
	healthHandler := handler.NewHealthHandler(sessionService, cachePinger, zlog)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "PhotoBooth Server",
		DisableStartupMessage: true,
		ErrorHandler:          handler.ErrorHandler(zlog),
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
	})

	// Setup global middlewares
	app.Use(middleware.RecoveryMiddleware(zlog))
	app.Use(middleware.LoggerMiddleware(zlog))
	app.Use(middleware.CORSMiddleware(cfg.Server.CORSAllowedOrigins))

	handler.SetupRoutes(app, sessionHandler, publicHandler, healthHandler)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		zlog.Info("server starting",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
			zap.String("public_url", cfg.Server.BasePublicURL),
		)
		if err := app.Listen(addr); err != nil {
			zlog.Error("server failed to start", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server stopped")
}

// initDB initializes PostgreSQL database connection with retry logic
func initDB(cfg *config.Config, zlog *zap.Logger) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}

		zlog.Warn("failed to connect to database",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zlog.Error("error closing database after ping failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// initRedis initializes Redis client and verifies connection
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// initEmail builds the configured email provider
func initEmail(cfg *config.Config, zlog *zap.Logger) (email.Sender, error) {
	emailConfig := &email.EmailConfig{
		APIKey:    cfg.Email.APIKey,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
		BaseURL:   cfg.Email.ServiceURL,
		Timeout:   cfg.Email.Timeout,
	}

	switch cfg.Email.Provider {
	case config.EmailProviderRelay:
		return email.NewRelayEmailService(emailConfig, zlog)
	default:
		return email.NewResendEmailService(emailConfig, zlog)
	}
}
