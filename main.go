package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/forgery-check/internal/analysis"
	"github.com/example/forgery-check/internal/config"
	"github.com/example/forgery-check/internal/events"
	"github.com/example/forgery-check/internal/handlers"
	"github.com/example/forgery-check/internal/logging"
	"github.com/example/forgery-check/internal/preview"
	"github.com/example/forgery-check/internal/settings"
	"github.com/example/forgery-check/internal/workflow"
)

func main() {
	cfg, err := config.Load(getEnv("FORGERY_CONFIG", "config.yaml"))
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.Server.Mode)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, closeStore := initSettingsStore(ctx, cfg.Settings, logger)
	defer closeStore()

	endpoints := settings.NewEndpoints(store)
	seedEndpoint(ctx, endpoints, cfg.Settings.DefaultEndpoint, logger)

	previews := preview.NewRegistry()
	hub := events.NewHub(logger)
	client := analysis.NewClient(&http.Client{}, logger)
	controller := workflow.NewController(client, endpoints, previews, hub, logger)
	controller.Observe(hub)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(logger))
	r.MaxMultipartMemory = cfg.Upload.MaxSize

	handlers.RegisterRoutes(r, handlers.Dependencies{
		Controller:    controller,
		Previews:      previews,
		Endpoints:     endpoints,
		Hub:           hub,
		MaxUploadSize: cfg.Upload.MaxSize,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	logger.Info("forgery-check listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("settings_backend", cfg.Settings.Backend))
	if err := serveHTTPServer(server, cfg.Server.ShutdownTimeout, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// initSettingsStore opens the configured backend. The returned func releases it.
func initSettingsStore(ctx context.Context, cfg config.SettingsConfig, logger *zap.Logger) (settings.Store, func()) {
	switch cfg.Backend {
	case config.BackendMemory:
		return settings.NewMemoryStore(), func() {}
	case config.BackendRedis:
		client := initRedis(ctx, cfg, logger)
		return settings.NewRedisStore(client, cfg.RedisPrefix, logger), func() { _ = client.Close() }
	case config.BackendPostgres:
		db := initDatabase(ctx, cfg.DatabaseDSN, logger)
		store := settings.NewGormStore(db, logger)
		if err := store.AutoMigrate(ctx); err != nil {
			logger.Fatal("auto migrate failed", zap.Error(err))
		}
		return store, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
	default:
		return settings.NewFileStore(cfg.FilePath), func() {}
	}
}

func initDatabase(ctx context.Context, dsn string, zapLogger *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("failed to access db handle", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		zapLogger.Fatal("database ping failed", zap.Error(err))
	}

	return db
}

func initRedis(ctx context.Context, cfg config.SettingsConfig, zapLogger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	return client
}

// seedEndpoint stores fallback when no endpoint has been saved yet.
func seedEndpoint(ctx context.Context, endpoints *settings.Endpoints, fallback string, logger *zap.Logger) {
	if fallback == "" {
		return
	}
	current, err := endpoints.Endpoint(ctx)
	if err != nil {
		logger.Warn("failed to read stored endpoint", zap.Error(err))
		return
	}
	if current != "" {
		return
	}
	if _, err := endpoints.Save(ctx, fallback); err != nil {
		logger.Warn("ignoring invalid default endpoint", zap.Error(err))
		return
	}
	logger.Info("seeded endpoint from configuration")
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
