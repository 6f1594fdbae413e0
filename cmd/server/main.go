package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"razorpay-provider/internal/config"
	handlers "razorpay-provider/internal/handlers/shared"
	"razorpay-provider/internal/middleware"
	"razorpay-provider/internal/repositories/mongodb"
	"razorpay-provider/internal/services"
	"razorpay-provider/pkg/cache"
	"razorpay-provider/pkg/database"
	"razorpay-provider/pkg/logger"
	"razorpay-provider/pkg/payment"
	"razorpay-provider/pkg/websocket"
	"razorpay-provider/routes"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  "stdout",
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		appLogger.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(cfg.Tracing)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to set up tracing")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := payment.NewMetrics(registry)

	// Host customer store
	mongo, err := database.NewMongoDB(ctx, &database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	if err := database.NewMigrator(mongo.Database, cfg.Database.Customers, appLogger.Entry()).Up(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to run migrations")
	}

	// Redis is optional: without it there is no webhook de-duplication, no
	// session locking and no cross-instance event relay.
	redisCache := connectRedis(cfg.Redis, appLogger)

	var customerCache mongodb.CacheService
	if redisCache != nil {
		customerCache = redisCache
	}
	customers := mongodb.NewCustomerRepository(mongo.Database, cfg.Database.Customers, customerCache)

	gateway, err := payment.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret,
		payment.WithAccount(cfg.Razorpay.Account),
		payment.WithMetrics(metrics),
	)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to create Razorpay gateway")
	}

	var sessionOpts []services.SessionOption
	if redisCache != nil {
		sessionOpts = append(sessionOpts, services.WithSessionLocker(services.NewRedisSessionLocker(redisCache, cfg.Security.LockTTL)))
	}
	sessionService, err := services.NewPaymentSessionService(*cfg.Razorpay, gateway,
		services.NewCustomerReconciler(gateway, customers, appLogger), appLogger, sessionOpts...)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to create payment session service")
	}

	// Live payment feed
	hub := websocket.NewHub(appLogger.Entry())
	go hub.Run(ctx)

	var events services.PaymentEventPublisher = services.NewHubPublisher(hub)
	if redisCache != nil {
		relay := services.NewRedisEventRelay(redisCache, events, appLogger)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				appLogger.WithError(err).Error("Payment event relay stopped")
			}
		}()
		events = relay
	}

	webhookOpts := []services.WebhookOption{
		services.WithEventPublisher(events),
		services.WithWebhookMetrics(metrics),
	}
	if redisCache != nil {
		webhookOpts = append(webhookOpts, services.WithDedup(redisCache, cfg.Webhook.DedupTTL))
	}

	var closers []func() error
	if cfg.Webhook.Archive {
		store, closeStore, err := newObjectStore(ctx, cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to create webhook archive store")
		}
		closers = append(closers, closeStore)
		webhookOpts = append(webhookOpts, services.WithArchive(services.NewWebhookArchive(store, cfg.Webhook.ArchivePrefix)))
	}
	if cfg.Webhook.NotifyOnFailure {
		provider, err := newSMSProvider(ctx, cfg.SMS)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to create SMS provider")
		}
		webhookOpts = append(webhookOpts, services.WithNotifier(services.NewNotificationService(provider, appLogger)))
	}

	resolved := cfg.Razorpay.Resolve()
	webhookService := services.NewWebhookService(
		payment.NewVerifier(resolved.KeySecret, resolved.WebhookSecret), gateway, appLogger, webhookOpts...)

	// Initialize handlers
	sessionHandler := handlers.NewPaymentSessionHandler(sessionService)
	webhookHandler := handlers.NewWebhookHandler(webhookService, appLogger)
	wsHandler := websocket.NewHandler(hub, websocket.HandlerConfig{
		ReadBufferSize:    cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:   cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout:  cfg.WebSocket.HandshakeTimeout,
		PingInterval:      cfg.WebSocket.PingInterval,
		PongTimeout:       cfg.WebSocket.PongTimeout,
		MaxConnections:    cfg.WebSocket.MaxConnections,
		EnableCompression: cfg.WebSocket.EnableCompression,
		AllowedOrigins:    cfg.WebSocket.AllowedOrigins,
	})

	// Initialize Gin router
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Fatal("Invalid trusted proxies")
	}

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	auth := middleware.AuthRequired(cfg.Security.JWTSecret, cfg.Security.JWTRole)

	// API routes
	v1 := router.Group("/api/v1")
	{
		routes.SetupPaymentSessionRoutes(v1, sessionHandler, auth)
		routes.SetupWebhookRoutes(v1, webhookHandler)
		routes.SetupLiveFeedRoutes(v1, cfg.WebSocket.Path, wsHandler, auth)
	}

	checks := map[string]func(context.Context) error{
		"mongodb": mongo.Ping,
	}
	if redisCache != nil {
		checks["redis"] = redisCache.Ping
	}
	router.GET("/health", handlers.HealthCheck(cfg.App.Version, checks))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.WithError(err).Warn("Tracer shutdown failed")
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			appLogger.WithError(err).Warn("Failed to close archive store")
		}
	}
	if redisCache != nil {
		_ = redisCache.Close()
	}
	if err := mongo.Close(); err != nil {
		appLogger.WithError(err).Warn("Failed to close MongoDB")
	}
}

func connectRedis(cfg *config.RedisConfig, appLogger *logger.Logger) *cache.RedisCache {
	if cfg == nil || !cfg.Enabled {
		appLogger.Warn("Redis disabled; webhook de-duplication and session locks are off")
		return nil
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Host,
		Port:         cfg.Port,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Warn("Redis unavailable; continuing without it")
		return nil
	}
	return redisCache
}
