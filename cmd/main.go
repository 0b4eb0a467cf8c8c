package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/servicehub/marketplace/internal/config"
	"github.com/servicehub/marketplace/internal/database"
	"github.com/servicehub/marketplace/internal/payment"
	"github.com/servicehub/marketplace/internal/server"
	"github.com/servicehub/marketplace/shared/auth"
	"github.com/servicehub/marketplace/shared/events"
	"github.com/servicehub/marketplace/shared/logger"
	"github.com/servicehub/marketplace/shared/models"
	sharedredis "github.com/servicehub/marketplace/shared/redis"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const subscriberGroup = "marketplace-notifications"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database connection (write store)
	db, err := database.Open(cfg)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		zl.Fatal("failed to migrate database", zap.Error(err))
	}

	// Redis connection (read model store + event streaming)
	redis, err := sharedredis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		zl.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redis.Close()

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		zl.Fatal("failed to build token service", zap.Error(err))
	}

	// --- CQRS wiring ---
	app := server.NewApp(server.Dependencies{
		DB:           db,
		Publisher:    events.NewPublisher(redis.Client),
		AccountCache: sharedredis.NewViewCache[models.AccountView](redis.Client, 0),
		ServiceCache: sharedredis.NewViewCache[models.ServiceView](redis.Client, cfg.ServiceCacheTTL()),
		Gateway:      payment.NewStripeGateway(cfg.StripeSecretKey),
		Hasher:       auth.NewBcryptHasher(bcrypt.DefaultCost),
		Tokens:       tokens,
		Logger:       zl,
	}, cfg.CookieSecure)

	if cfg.BootstrapAdminUsername != "" {
		created, err := app.Accounts.EnsureSuperAdmin(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword)
		if err != nil {
			zl.Fatal("failed to bootstrap super admin", zap.Error(err))
		}
		if created {
			zl.Info("bootstrap super admin created", zap.String("username", cfg.BootstrapAdminUsername))
		}
	}

	// One consumer per stream feeds the notification projection.
	var wg sync.WaitGroup
	for _, stream := range []string{
		events.BookingEventsStream,
		events.TransactionEventsStream,
		events.ReviewEventsStream,
		events.DisputeEventsStream,
	} {
		subscriber := events.NewSubscriber(redis.Client, zl, events.SubscriberConfig{
			Group:    subscriberGroup,
			Consumer: cfg.SubscriberConsumer,
			Stream:   stream,
			Handler:  app.Projector.HandleEvent,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("subscriber stopped", zap.String("stream", stream), zap.Error(err))
			}
		}()
	}

	router := server.NewRouter(app, server.RouterConfig{
		AllowedOrigins:  cfg.AllowedOrigins(),
		LoginRatePerMin: cfg.LoginRatePerMin,
	}, zl)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("marketplace starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	zl.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown failed", zap.Error(err))
	}
	cancel()
	wg.Wait()
}
