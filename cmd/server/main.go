package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-server/internal/config"
	"event-server/internal/gateway"
	"event-server/internal/handler"
	"event-server/internal/messaging"
	"event-server/internal/service"
	"event-server/shared/database"
	"event-server/shared/interfaces"
	sharedLogger "event-server/shared/logger"
	sharedMiddleware "event-server/shared/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file")
	envFile := flag.String("env-file", ".env", "path to the .env file")
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, version) and exit")
	flag.Parse()

	// --- Configuration ---
	cfg, err := config.LoadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	logger, err := sharedLogger.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	zap.L().Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("pushProvider", cfg.Push.Provider),
		zap.Bool("postgres", cfg.Postgres.Enabled()),
		zap.Bool("redis", cfg.Redis.Addr != ""),
		zap.Bool("rabbitmq", cfg.RabbitMQ.URI != ""),
	)

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// --- Storage ---
	var (
		events interfaces.EventStore
		users  interfaces.UserRepository
		subs   interfaces.SubscriptionStore
	)
	if cfg.Postgres.Enabled() {
		pgPool, err := setupPostgres(cfg.Postgres)
		if err != nil {
			zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer pgPool.Close()

		if *migrateCmd != "" {
			if err := runMigrationCommand(appCtx, *migrateCmd, pgPool, cfg.Log); err != nil {
				zap.L().Fatal("Migration command failed", zap.String("command", *migrateCmd), zap.Error(err))
			}
			return
		}
		if cfg.Postgres.AutoMigrate {
			if err := runMigrations(appCtx, pgPool, cfg.Log); err != nil {
				zap.L().Fatal("Failed to apply migrations", zap.Error(err))
			}
		}
		events = database.NewPgEventRepository(pgPool, logger)
		users = database.NewPgUserRepository(pgPool, logger)
		subs = database.NewPgPushSubscriptionRepository(pgPool, logger)
	} else {
		if *migrateCmd != "" {
			zap.L().Fatal("Migration command requires PostgreSQL configuration", zap.String("command", *migrateCmd))
		}
		zap.L().Warn("PostgreSQL is not configured, using the in-memory store (data is lost on restart)")
		mem := database.NewMemoryStore(logger)
		events, users, subs = mem, mem, mem
	}

	var (
		redisClient    *redis.Client
		ticketStore    interfaces.TicketStore
		dispatchMarker interfaces.DispatchMarker
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = setupRedis(cfg.Redis)
		if err != nil {
			zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		ticketStore = database.NewRedisTicketStore(redisClient, cfg.Redis.TicketTTL, logger)
		dispatchMarker = database.NewRedisDispatchMarker(redisClient, cfg.Redis.DispatchMarkerTTL, logger)
	} else {
		ticketStore = database.NewMemoryTicketStore()
		dispatchMarker = database.NewMemoryDispatchMarker(cfg.Redis.DispatchMarkerTTL)
	}

	// --- Push pipeline ---
	pushGateway, err := gateway.New(appCtx, cfg, logger)
	if err != nil {
		zap.L().Fatal("Failed to create push gateway", zap.Error(err))
	}
	tracker := service.NewDeliveryTracker(ticketStore, logger)
	dispatcher := service.NewNotificationDispatcher(subs, pushGateway, tracker, service.DispatcherOptions{
		Parallelism:       cfg.Push.Parallelism,
		BatchTimeout:      cfg.Push.BatchTimeout,
		Locale:            cfg.Push.Locale,
		PruneUnregistered: cfg.Push.PruneUnregistered,
	}, logger)

	var (
		notifier      interfaces.NewEventNotifier
		consumer      *messaging.Consumer
		asyncNotifier *messaging.AsyncNotifier
	)
	if cfg.RabbitMQ.URI != "" {
		mqConn, err := connectRabbitMQ(cfg.RabbitMQ.URI, logger)
		if err != nil {
			zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()

		publisher, err := messaging.NewEventCreatedPublisher(mqConn, cfg.RabbitMQ.EventCreatedQueue, logger)
		if err != nil {
			zap.L().Fatal("Failed to create event_created publisher", zap.Error(err))
		}
		notifier = publisher

		consumer, err = messaging.NewConsumer(mqConn, cfg.RabbitMQ.EventCreatedQueue,
			cfg.RabbitMQ.WorkerConcurrency, cfg.RabbitMQ.PrefetchCount,
			messaging.NewProcessor(dispatcher, dispatchMarker, logger), logger)
		if err != nil {
			zap.L().Fatal("Failed to create event_created consumer", zap.Error(err))
		}
		go func() {
			if err := consumer.Start(); err != nil {
				zap.L().Error("event_created consumer stopped with error", zap.Error(err))
			}
		}()
	} else {
		asyncNotifier = messaging.NewAsyncNotifier(dispatcher, cfg.Notifier.QueueSize, cfg.Notifier.Workers, logger)
		notifier = asyncNotifier
		go func() {
			for err := range asyncNotifier.Errors() {
				zap.L().Warn("Notification dispatch incomplete", zap.Error(err))
			}
		}()
	}

	// --- Services & HTTP ---
	h := handler.NewHandler(
		service.NewEventService(events, notifier, logger),
		service.NewRegistrationLedger(events, users, logger),
		service.NewUserService(users, logger),
		service.NewSubscriptionService(subs, logger),
		tracker,
		logger,
	)

	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(sharedMiddleware.GinZapLogger(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", sharedMiddleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	p := ginprometheus.NewPrometheus("gin")

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	h.RegisterRoutes(router, handler.NewRegisterRateLimiter(redisClient, cfg.RateLimit.RegisterPerMinute, logger))
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	go func() {
		zap.L().Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	if consumer != nil {
		if err := consumer.Stop(shutdownCtx); err != nil {
			zap.L().Warn("event_created consumer did not finish in-flight dispatches", zap.Error(err))
		}
	}
	if asyncNotifier != nil {
		if err := asyncNotifier.Close(shutdownCtx); err != nil {
			zap.L().Warn("Pending notifications were cancelled", zap.Error(err))
		}
	}
	appCancel()
	zap.L().Info("Server exiting")
}
