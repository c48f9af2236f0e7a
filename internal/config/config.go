package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries everything the binaries need at startup. Values come from
// the environment; an optional config file can pre-populate them.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Port           string
	PostgresURL    string
	RedisAddr      string
	KafkaBrokers   string
	OTLPEndpoint   string
	JWTSecret      string
	TokenTTL       time.Duration
	CacheTTL       time.Duration
	MigrationsPath string
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("SERVICE_NAME", "storefront-api")
	v.SetDefault("SERVICE_VERSION", "0.1.0")
	v.SetDefault("PORT", "8080")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("CACHE_TTL", 10*time.Minute)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")

	v.SetConfigName("storefront")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Typed getters rather than Unmarshal: AutomaticEnv values are only
	// visible through Get, not through AllSettings.
	return &Config{
		ServiceName:    v.GetString("SERVICE_NAME"),
		ServiceVersion: v.GetString("SERVICE_VERSION"),
		Port:           v.GetString("PORT"),
		PostgresURL:    v.GetString("POSTGRES_URL"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		KafkaBrokers:   v.GetString("KAFKA_BROKERS"),
		OTLPEndpoint:   v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		CacheTTL:       v.GetDuration("CACHE_TTL"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
	}, nil
}

// Brokers splits the comma-separated broker list; empty config means no
// Kafka and the caller skips event publishing.
func (c *Config) Brokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	return strings.Split(c.KafkaBrokers, ",")
}
