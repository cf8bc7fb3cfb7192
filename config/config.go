package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	AppPort int

	StorageDriver string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	MigrationsPath   string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	CustomerBotToken string
	ProviderBotToken string

	PaymentGatewayURL string
	PaymentCurrency   string
	PaymentTimeout    time.Duration

	FeedResyncInterval time.Duration
	StrictTransitions  bool
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "homeservices"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.AppPort = cast.ToInt(getOrReturnDefault("HTTP_PORT", 8080))

	cfg.StorageDriver = cast.ToString(getOrReturnDefault("STORAGE_DRIVER", StoragePostgres))

	cfg.PostgresHost = cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost"))
	cfg.PostgresPort = cast.ToString(getOrReturnDefault("POSTGRES_PORT", "5432"))
	cfg.PostgresUser = cast.ToString(getOrReturnDefault("POSTGRES_USER", "postgres"))
	cfg.PostgresPassword = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "1234"))
	cfg.PostgresDB = cast.ToString(getOrReturnDefault("POSTGRES_DB", "homeservices"))
	cfg.MigrationsPath = cast.ToString(getOrReturnDefault("MIGRATIONS_PATH", "migrations"))

	// empty host disables the cross-process change bus
	cfg.RedisHost = cast.ToString(getOrReturnDefault("REDIS_HOST", ""))
	cfg.RedisPort = cast.ToString(getOrReturnDefault("REDIS_PORT", "6379"))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))
	cfg.RedisDB = cast.ToInt(getOrReturnDefault("REDIS_DB", 0))
	cfg.RedisChannel = cast.ToString(getOrReturnDefault("REDIS_CHANNEL", "bookings:changes"))

	cfg.CustomerBotToken = cast.ToString(getOrReturnDefault("CUSTOMER_BOT_TOKEN", ""))
	cfg.ProviderBotToken = cast.ToString(getOrReturnDefault("PROVIDER_BOT_TOKEN", ""))

	cfg.PaymentGatewayURL = cast.ToString(getOrReturnDefault("PAYMENT_GATEWAY_URL", ""))
	cfg.PaymentCurrency = cast.ToString(getOrReturnDefault("PAYMENT_CURRENCY", "INR"))
	cfg.PaymentTimeout = cast.ToDuration(getOrReturnDefault("PAYMENT_TIMEOUT", "10s"))

	cfg.FeedResyncInterval = cast.ToDuration(getOrReturnDefault("FEED_RESYNC_INTERVAL", "30s"))
	cfg.StrictTransitions = cast.ToBool(getOrReturnDefault("STRICT_TRANSITIONS", false))

	return cfg
}

func (c Config) PostgresURL() string {
	return "postgres://" + c.PostgresUser + ":" + c.PostgresPassword + "@" +
		c.PostgresHost + ":" + c.PostgresPort + "/" + c.PostgresDB + "?sslmode=disable"
}

func (c Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
