package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"event-server/internal/config"
	"event-server/pkg/migration"
	"event-server/shared/database"
	sharedLogger "event-server/shared/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
)

const (
	connectMaxRetries = 30
	connectRetryDelay = 3 * time.Second
)

// setupPostgres создает пул соединений, повторяя попытки, пока БД поднимается.
func setupPostgres(cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns

	var lastErr error
	for attempt := 1; attempt <= connectMaxRetries; attempt++ {
		connectCtx, connectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
		if err == nil {
			err = pool.Ping(connectCtx)
			if err != nil {
				pool.Close()
			}
		}
		connectCancel()

		if err == nil {
			zap.L().Info("Successfully connected and pinged PostgreSQL", zap.Int("attempt", attempt))
			return pool, nil
		}
		lastErr = err
		zap.L().Warn("PostgreSQL is not ready, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", connectMaxRetries),
			zap.Error(err),
		)
		time.Sleep(connectRetryDelay)
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", connectMaxRetries, lastErr)
}

func newMigrator(pool *pgxpool.Pool, logCfg sharedLogger.Config) *migration.Migrator {
	level, err := zerolog.ParseLevel(logCfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	migrationLog := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().
		Str("service", logCfg.Service).
		Logger()

	return migration.NewMigrator(migration.Config{
		MigrationsFS:   database.MigrationsFS,
		MigrationsPath: database.MigrationsPath,
	}, pool, migrationLog)
}

// runMigrations применяет встроенные миграции. Мигратор пишет в zerolog.
func runMigrations(ctx context.Context, pool *pgxpool.Pool, logCfg sharedLogger.Config) error {
	version, err := newMigrator(pool, logCfg).Up(ctx)
	if err != nil {
		return err
	}
	zap.L().Info("Database schema is up to date", zap.Uint("version", version))
	return nil
}

// runMigrationCommand выполняет разовую команду мигратора (up, down, version).
func runMigrationCommand(ctx context.Context, command string, pool *pgxpool.Pool, logCfg sharedLogger.Config) error {
	migrator := newMigrator(pool, logCfg)
	switch command {
	case "up":
		_, err := migrator.Up(ctx)
		return err
	case "down":
		return migrator.Down(ctx)
	case "version":
		version, dirty, err := migrator.Version(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("Current schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q, expected up, down or version", command)
	}
}

func setupRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	var lastErr error
	for attempt := 1; attempt <= connectMaxRetries; attempt++ {
		client := redis.NewClient(opts)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(pingCtx).Err()
		pingCancel()
		if err == nil {
			zap.L().Info("Successfully connected and pinged Redis", zap.String("address", cfg.Addr), zap.Int("attempt", attempt))
			return client, nil
		}
		client.Close()
		lastErr = err
		zap.L().Warn("Redis ping failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(connectRetryDelay)
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", connectMaxRetries, lastErr)
}

// connectRabbitMQ подключается к брокеру с повторами и логирует неожиданный разрыв соединения.
func connectRabbitMQ(uri string, logger *zap.Logger) (*amqp.Connection, error) {
	log := logger.Named("rabbitmq").With(zap.String("url", maskURL(uri)))
	var err error
	for attempt := 1; attempt <= connectMaxRetries; attempt++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(uri)
		if err == nil {
			log.Info("Successfully connected to RabbitMQ", zap.Int("attempt", attempt))
			go func() {
				closeErr := <-conn.NotifyClose(make(chan *amqp.Error, 1))
				if closeErr != nil {
					log.Error("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
				} else {
					log.Info("RabbitMQ connection closed gracefully")
				}
			}()
			return conn, nil
		}
		log.Warn("RabbitMQ connection failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(connectRetryDelay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", connectMaxRetries, err)
}

// maskURL скрывает пароль в URL для логов.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
