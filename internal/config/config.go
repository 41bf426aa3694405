package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"event-server/shared/logger"
	"event-server/shared/notifications"
	"event-server/shared/utils"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Поддерживаемые push-провайдеры.
const (
	PushProviderExpo = "expo"
	PushProviderFCM  = "fcm"
	PushProviderAPNS = "apns"
	PushProviderStub = "stub"
)

const maxPushParallelism = 16

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       logger.Config   `yaml:"log"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Push      PushConfig      `yaml:"push"`
	Expo      ExpoConfig      `yaml:"expo"`
	FCM       FCMConfig       `yaml:"fcm"`
	APNS      APNSConfig      `yaml:"apns"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port               string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	Env                string        `yaml:"env" env:"ENV" env-default:"development"`
	ReadTimeout        time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout       time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout        time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// PostgresConfig - подключение к БД. Пустой URL и пустой Host означают работу на хранилище в памяти.
type PostgresConfig struct {
	URL         string `yaml:"url" env:"DATABASE_URL"`
	Host        string `yaml:"host" env:"DB_HOST"`
	Port        string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User        string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password    string `yaml:"password" env:"DB_PASSWORD"`
	Name        string `yaml:"name" env:"DB_NAME" env-default:"events"`
	SSLMode     string `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
	MaxConns    int32  `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"10"`
	MinConns    int32  `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"1"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// Enabled reports whether a Postgres connection is configured.
func (c PostgresConfig) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

// DSN returns the connection string, preferring URL when set.
func (c PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// RedisConfig - пустой Addr отключает Redis: тикеты хранятся в памяти, лимитер тоже.
type RedisConfig struct {
	Addr      string        `yaml:"addr" env:"REDIS_ADDR"`
	Password  string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TicketTTL time.Duration `yaml:"ticket_ttl" env:"REDIS_TICKET_TTL" env-default:"24h"`

	// Сколько помнить, что рассылка по событию уже запускалась.
	DispatchMarkerTTL time.Duration `yaml:"dispatch_marker_ttl" env:"REDIS_DISPATCH_MARKER_TTL" env-default:"24h"`
}

// RabbitMQConfig - пустой URI означает рассылку внутри процесса без брокера.
type RabbitMQConfig struct {
	URI               string `yaml:"uri" env:"RABBITMQ_URI"`
	EventCreatedQueue string `yaml:"event_created_queue" env:"EVENT_CREATED_QUEUE" env-default:"event_created"`
	WorkerConcurrency int    `yaml:"worker_concurrency" env:"WORKER_CONCURRENCY" env-default:"2"`
	PrefetchCount     int    `yaml:"prefetch_count" env:"RABBITMQ_PREFETCH_COUNT" env-default:"4"`
}

type NotifierConfig struct {
	QueueSize int `yaml:"queue_size" env:"NOTIFIER_QUEUE_SIZE" env-default:"64"`
	Workers   int `yaml:"workers" env:"NOTIFIER_WORKERS" env-default:"2"`
}

type PushConfig struct {
	Provider          string        `yaml:"provider" env:"PUSH_PROVIDER" env-default:"stub"`
	BatchSize         int           `yaml:"batch_size" env:"PUSH_BATCH_SIZE" env-default:"100"`
	Parallelism       int           `yaml:"parallelism" env:"PUSH_PARALLELISM" env-default:"4"`
	BatchTimeout      time.Duration `yaml:"batch_timeout" env:"PUSH_BATCH_TIMEOUT" env-default:"10s"`
	Locale            string        `yaml:"locale" env:"PUSH_LOCALE" env-default:"fr"`
	PruneUnregistered bool          `yaml:"prune_unregistered" env:"PUSH_PRUNE_UNREGISTERED" env-default:"true"`
}

type ExpoConfig struct {
	URL         string `yaml:"url" env:"EXPO_PUSH_URL" env-default:"https://exp.host/--/api/v2/push/send"`
	AccessToken string `yaml:"access_token" env:"EXPO_ACCESS_TOKEN"`
}

type FCMConfig struct {
	CredentialsPath string `yaml:"credentials_path" env:"FCM_CREDENTIALS_PATH"` // Путь к файлу ключа сервис-аккаунта
}

type APNSConfig struct {
	KeyID      string `yaml:"key_id" env:"APNS_KEY_ID"`
	TeamID     string `yaml:"team_id" env:"APNS_TEAM_ID"`
	KeyPath    string `yaml:"key_path" env:"APNS_KEY_PATH"`
	Topic      string `yaml:"topic" env:"APNS_TOPIC"`
	Production bool   `yaml:"production" env:"APNS_PRODUCTION" env-default:"false"`
}

type RateLimitConfig struct {
	RegisterPerMinute uint `yaml:"register_per_minute" env:"RATE_LIMIT_REGISTER_PER_MINUTE" env-default:"10"`
}

// LoadConfig читает .env (если есть), затем config.yml, а при его отсутствии - только переменные окружения.
// Пароли можно положить в Docker Secrets: db_password, redis_password, expo_access_token.
func LoadConfig(configPath, envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			}
		}
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v. Попытка чтения из переменных окружения.", configPath, err)
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
		}
	}

	secrets := map[string]*string{
		"db_password":       &cfg.Postgres.Password,
		"redis_password":    &cfg.Redis.Password,
		"expo_access_token": &cfg.Expo.AccessToken,
	}
	for name, target := range secrets {
		if err := utils.OverrideFromSecret(name, target); err != nil {
			return nil, fmt.Errorf("ошибка чтения секрета %s: %w", name, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет значения, которые cleanenv проверить не может.
func (c *Config) Validate() error {
	c.Push.Provider = strings.ToLower(c.Push.Provider)
	switch c.Push.Provider {
	case PushProviderExpo, PushProviderFCM, PushProviderAPNS, PushProviderStub:
	default:
		return fmt.Errorf("unknown push provider %q", c.Push.Provider)
	}
	if c.Push.BatchSize <= 0 {
		return fmt.Errorf("push batch size must be positive, got %d", c.Push.BatchSize)
	}
	if c.Push.Parallelism < 1 || c.Push.Parallelism > maxPushParallelism {
		return fmt.Errorf("push parallelism must be between 1 and %d, got %d", maxPushParallelism, c.Push.Parallelism)
	}
	if c.Push.BatchTimeout <= 0 {
		return fmt.Errorf("push batch timeout must be positive, got %s", c.Push.BatchTimeout)
	}
	if !slices.Contains(notifications.SupportedLocales(), strings.ToLower(c.Push.Locale)) {
		return fmt.Errorf("unsupported push locale %q", c.Push.Locale)
	}
	if c.Notifier.Workers < 1 || c.Notifier.QueueSize < 1 {
		return fmt.Errorf("notifier needs at least one worker and a positive queue size")
	}
	if c.RabbitMQ.URI != "" && c.RabbitMQ.WorkerConcurrency < 1 {
		return fmt.Errorf("rabbitmq worker concurrency must be positive, got %d", c.RabbitMQ.WorkerConcurrency)
	}
	return nil
}
