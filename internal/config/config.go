// Package config loads process configuration from the environment, with an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"table_order_backend/pkg/utils"

	"github.com/joho/godotenv"
)

type DBConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	ApplySchema bool
	SeedMenu    bool
}

// DSN renders a lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type AuthConfig struct {
	AdminUsername string
	AdminPassword string
	JWTSecret     string
	JWTTTL        time.Duration
}

type RealtimeConfig struct {
	WriteTimeout time.Duration
	SendBuffer   int
	PingInterval time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether domain events should be mirrored to Kafka.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type Config struct {
	Port               string
	CORSAllowedOrigins []string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration

	MaxTables       int
	SetMenuFile     string
	DefaultDrink    string
	KitchenLookback time.Duration

	DB        DBConfig
	Auth      AuthConfig
	Realtime  RealtimeConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

// Load reads .env when present and then the environment. Variables already set
// in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Port:               utils.Getenv("PORT", "8080"),
		CORSAllowedOrigins: utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"}),
		LogLevel:           utils.Getenv("LOG_LEVEL", "info"),
		LogFormat:          utils.Getenv("LOG_FORMAT", "console"),
		ShutdownTimeout:    utils.GetenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		MaxTables:       utils.GetenvInt("MAX_TABLES", 10),
		SetMenuFile:     utils.Getenv("SET_MENU_FILE", ""),
		DefaultDrink:    utils.Getenv("DEFAULT_DRINK", ""),
		KitchenLookback: utils.GetenvDuration("KITCHEN_LOOKBACK", 12*time.Hour),

		DB: DBConfig{
			Host:        utils.Getenv("DB_HOST", "localhost"),
			Port:        utils.Getenv("DB_PORT", "5432"),
			User:        utils.Getenv("DB_USER", "table_order"),
			Password:    utils.Getenv("DB_PASSWORD", "table_order"),
			Name:        utils.Getenv("DB_NAME", "table_order"),
			SSLMode:     utils.Getenv("DB_SSLMODE", "disable"),
			ApplySchema: utils.GetenvBool("DB_APPLY_SCHEMA", true),
			SeedMenu:    utils.GetenvBool("SEED_MENU", true),
		},
		Auth: AuthConfig{
			AdminUsername: utils.Getenv("ADMIN_USERNAME", "admin"),
			AdminPassword: utils.Getenv("ADMIN_PASSWORD", ""),
			JWTSecret:     utils.Getenv("JWT_SECRET", ""),
			JWTTTL:        utils.GetenvDuration("JWT_TTL", 12*time.Hour),
		},
		Realtime: RealtimeConfig{
			WriteTimeout: utils.GetenvDuration("WS_WRITE_TIMEOUT", 5*time.Second),
			SendBuffer:   utils.GetenvInt("WS_SEND_BUFFER", 64),
			PingInterval: utils.GetenvDuration("WS_PING_INTERVAL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: utils.GetenvList("KAFKA_BROKERS", nil),
			Topic:   utils.Getenv("KAFKA_TOPIC", "table-order.events"),
		},
		RateLimit: RateLimitConfig{
			RPS:   utils.GetenvFloat("RATE_LIMIT_RPS", 2),
			Burst: utils.GetenvInt("RATE_LIMIT_BURST", 10),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxTables < 1 {
		return fmt.Errorf("MAX_TABLES must be at least 1, got %d", c.MaxTables)
	}
	if c.Auth.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD must be set")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.Realtime.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be positive, got %d", c.Realtime.SendBuffer)
	}
	return nil
}
