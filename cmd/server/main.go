// cmd/server/main.go - SAYIT API server
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sayit/internal/config"
	"sayit/internal/database"
	"sayit/internal/handlers"
	"sayit/internal/middleware"
	"sayit/internal/realtime"
	"sayit/internal/services"
	"sayit/pkg/auth"
	"sayit/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	appVersion = "1.0.0"
	buildTime  = "unknown"
	gitCommit  = "unknown"
)

func main() {
	cfg := config.Load()
	log := setupLogging(cfg)
	printStartupInfo(cfg, log)

	db, err := database.NewMongoDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("error disconnecting from MongoDB")
		}
	}()

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.CreateIndexes(indexCtx); err != nil {
		log.WithError(err).Warn("failed to create some indexes")
	}
	cancelIndexes()

	validator.Init()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiration)*time.Hour)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := realtime.NewHub(log.WithField("component", "realtime"))
	go hub.Run(ctx)

	publisher := setupPublisher(ctx, cfg, hub, log)

	complaintStore := database.NewComplaintStore(db)
	categoryStore := database.NewCategoryStore(db)
	agencyStore := database.NewAgencyStore(db)
	userStore := database.NewUserStore(db)

	notificationService := services.NewNotificationService(database.NewNotificationStore(db), publisher, log)
	complaintService := services.NewComplaintService(complaintStore, categoryStore, agencyStore, userStore, notificationService, log)
	authService := services.NewAuthService(userStore, database.NewAnonymousUserStore(db), agencyStore, jwtManager, log)
	directoryService := services.NewDirectoryService(categoryStore, agencyStore)
	feedbackService := services.NewFeedbackService(database.NewFeedbackStore(db))
	fileService := services.NewFileService(services.FileStorageConfig{
		BaseURL:   cfg.StorageURL,
		APIKey:    cfg.StorageAPIKey,
		PublicURL: cfg.StoragePublicURL,
		MaxSize:   cfg.UploadMaxSize,
		MaxFiles:  cfg.UploadMaxFiles,
	}, log)
	if !fileService.Configured() {
		log.Warn("STORAGE_URL is not set; file uploads will fail")
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		limiter, err = middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitDuration)
		if err != nil {
			log.WithError(err).Fatal("invalid rate limit configuration")
		}
		limiter.StartCleanup(ctx, 5*time.Minute)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		// one full multipart batch plus form overhead
		MaxBodyBytes: cfg.UploadMaxSize*int64(cfg.UploadMaxFiles) + 1<<20,
		RateLimiter:  limiter,
		JWT:          jwtManager,
		Log:          log,
	}, handlers.Handlers{
		Auth:          handlers.NewAuthHandler(authService, log),
		Complaints:    handlers.NewComplaintHandler(complaintService, fileService, log),
		Notifications: handlers.NewNotificationHandler(notificationService, cfg.NotificationRetentionDays, log),
		Directory:     handlers.NewDirectoryHandler(directoryService, log),
		Users:         handlers.NewUserHandler(authService, log),
		Files:         handlers.NewFileHandler(fileService, log),
		Feedback:      handlers.NewFeedbackHandler(feedbackService, log),
		Health:        handlers.NewHealthHandler(db, hub, appVersion),
		WebSocket:     handlers.NewWebSocketHandler(hub, jwtManager, cfg.AllowedOrigins, log),
	})

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("SAYIT API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server forced to shutdown")
	} else {
		log.Info("server gracefully stopped")
	}
	// closes live sockets and the redis subscriber
	stop()
}

func setupLogging(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		gin.SetMode(gin.DebugMode)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// setupPublisher fans notifications out through Redis when REDIS_URL is set,
// otherwise pushes straight to this instance's hub.
func setupPublisher(ctx context.Context, cfg *config.Config, hub *realtime.Hub, log *logrus.Logger) services.NotificationPublisher {
	if cfg.RedisURL == "" {
		return hub
	}

	client, err := realtime.Connect(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("invalid REDIS_URL; using in-process notification push")
		return hub
	}
	bus := realtime.NewRedisBus(client, hub, log.WithField("component", "redis_bus"))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := bus.Ping(pingCtx); err != nil {
		log.WithError(err).Warn("redis unreachable; using in-process notification push")
		_ = bus.Close()
		return hub
	}

	go func() {
		bus.Run(ctx)
		_ = bus.Close()
	}()
	log.Info("notification fan-out via redis enabled")
	return bus
}

func printStartupInfo(cfg *config.Config, log *logrus.Logger) {
	log.WithFields(logrus.Fields{
		"version":     appVersion,
		"build":       buildTime,
		"commit":      gitCommit,
		"environment": cfg.Environment,
		"database":    cfg.DatabaseName,
		"origins":     cfg.AllowedOrigins,
		"rate_limit":  cfg.RateLimitEnabled,
	}).Info("starting SAYIT API")
}
