package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	adminapp "github.com/bignstrong/RailGuard/internal/application/admin"
	cartapp "github.com/bignstrong/RailGuard/internal/application/cart"
	"github.com/bignstrong/RailGuard/internal/application/notification"
	orderapp "github.com/bignstrong/RailGuard/internal/application/order"
	subscriberapp "github.com/bignstrong/RailGuard/internal/application/subscriber"
	"github.com/bignstrong/RailGuard/internal/domain/chat"
	"github.com/bignstrong/RailGuard/internal/domain/order"
	"github.com/bignstrong/RailGuard/internal/infrastructure/cache"
	"github.com/bignstrong/RailGuard/internal/infrastructure/config"
	"github.com/bignstrong/RailGuard/internal/infrastructure/event"
	"github.com/bignstrong/RailGuard/internal/infrastructure/logger"
	"github.com/bignstrong/RailGuard/internal/infrastructure/migration"
	"github.com/bignstrong/RailGuard/internal/infrastructure/persistence"
	"github.com/bignstrong/RailGuard/internal/infrastructure/telegram"
	"github.com/bignstrong/RailGuard/internal/infrastructure/telemetry"
	"github.com/bignstrong/RailGuard/internal/interfaces/http/handler"
	"github.com/bignstrong/RailGuard/internal/interfaces/http/middleware"
	"github.com/bignstrong/RailGuard/internal/interfaces/http/router"
	"github.com/bignstrong/RailGuard/migrations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting shop backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Apply schema migrations before the pool opens
	if cfg.Database.AutoMigrate {
		if err := migrateUp(cfg.Database.DSN(), log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Initialize database connection with custom logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Session stores
	stores, err := cache.NewStores(context.Background(), cfg.Redis, cfg.Cart.TTL, cache.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize session stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing session stores", zap.Error(err))
		}
	}()

	// Chat platform client
	bot, err := telegram.NewClient(telegram.Config{
		Token:         cfg.Telegram.BotToken,
		APIBaseURL:    cfg.Telegram.APIBaseURL,
		Timeout:       cfg.Telegram.Timeout,
		RatePerSecond: cfg.Telegram.RatePerSecond,
		BreakerTrips:  cfg.Telegram.BreakerTrips,
		BreakerReset:  cfg.Telegram.BreakerReset,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize chat client", zap.Error(err))
	}
	if !cfg.Telegram.Configured() {
		log.Warn("Chat credentials are not configured",
			zap.String("on_missing_credentials", cfg.Notification.OnMissingCredentials),
		)
	}

	location, err := time.LoadLocation(cfg.Telegram.Timezone)
	if err != nil {
		log.Fatal("Invalid timezone", zap.String("timezone", cfg.Telegram.Timezone), zap.Error(err))
	}

	policy, err := order.ParseStatusPolicy(cfg.Order.StatusPolicy)
	if err != nil {
		log.Fatal("Invalid order status policy", zap.Error(err))
	}

	metrics := telemetry.NewMetrics()

	// Repositories and services
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	subscriberRepo := persistence.NewGormSubscriberRepository(db.DB)

	dispatcher := notification.NewDispatcher(bot, cfg.Telegram.NotifyChatID, log,
		notification.WithResultRecorder(metrics),
	)

	orderOpts := []orderapp.Option{
		orderapp.WithStatusPolicy(policy),
		orderapp.WithRejectionRecorder(metrics),
		orderapp.WithLogger(log),
	}
	if cfg.Notification.OnMissingCredentials == config.OnMissingFail {
		orderOpts = append(orderOpts, orderapp.WithRequiredNotifier(dispatcher))
	}
	orderService := orderapp.NewService(orderRepo, orderOpts...)
	cartService := cartapp.NewService(stores.Carts, orderService, log)
	subscriberService := subscriberapp.NewService(subscriberRepo, log)
	adminHandler := adminapp.NewHandler(orderService, bot, chat.NewAllowList(cfg.Telegram.AdminIDs...), log,
		adminapp.WithIdempotencyStore(stores.Idempotency, cfg.Telegram.DedupeTTL),
		adminapp.WithLocation(location),
		adminapp.WithRecentLimit(cfg.Order.RecentLimit),
		adminapp.WithTopProducts(cfg.Order.TopProducts),
		adminapp.WithUpdateRecorder(metrics),
	)

	// Event bus: notifications run after the response is written
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(dispatcher)
	eventBus.Subscribe(metrics)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	orderService.SetEventPublisher(eventBus)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanAttributes(),
		middleware.HTTPMetrics(metrics, "/metrics"),
		middleware.Secure(),
		middleware.CORSWithConfig(corsCfg),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	// Order submissions share one per-IP budget across both checkout paths
	var orderLimit []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		defer limiter.Stop()
		orderLimit = append(orderLimit, middleware.RateLimit(limiter))
	}
	withLimit := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, orderLimit...), h)
	}

	orderHandler := handler.NewOrderHandler(orderService)
	cartHandler := handler.NewCartHandler(cartService, handler.CartCookie{
		Name:   cfg.Cart.CookieName,
		MaxAge: cfg.Cart.TTL,
		Secure: cfg.Cart.CookieSecure,
	})
	subscriptionHandler := handler.NewSubscriptionHandler(subscriberService)
	webhookHandler := handler.NewWebhookHandler(adminHandler, cfg.Telegram.WebhookSecret)
	healthHandler := handler.NewHealthHandler(db, stores)

	r := router.NewRouter(engine)

	orderRoutes := router.NewDomainGroup("orders", "/orders")
	orderRoutes.POST("", withLimit(orderHandler.Create)...)

	cartRoutes := router.NewDomainGroup("cart", "/cart")
	cartRoutes.GET("", cartHandler.Get)
	cartRoutes.DELETE("", cartHandler.Clear)
	cartRoutes.POST("/items", cartHandler.AddItem)
	cartRoutes.PATCH("/items/:id", cartHandler.UpdateQuantity)
	cartRoutes.DELETE("/items/:id", cartHandler.RemoveItem)
	cartRoutes.POST("/checkout", withLimit(cartHandler.Checkout)...)

	subscriptionRoutes := router.NewDomainGroup("subscriptions", "/subscriptions")
	subscriptionRoutes.POST("", subscriptionHandler.Subscribe)

	telegramRoutes := router.NewDomainGroup("telegram", "/telegram")
	telegramRoutes.POST("/webhook", webhookHandler.Handle)

	for _, g := range []*router.DomainGroup{orderRoutes, cartRoutes, subscriptionRoutes, telegramRoutes} {
		r.Register(g)
		log.Debug("Routes registered", zap.String("group", g.Name()), zap.Strings("routes", g.Routes()))
	}
	r.Setup()

	engine.GET("/health", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Drain notifications still in flight
	if err := eventBus.Stop(ctx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateUp applies the embedded migrations over a dedicated connection
func migrateUp(dsn string, log *zap.Logger) error {
	m, err := migration.NewFromURL(dsn, migrations.FS, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()
	return m.Up()
}
