package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	AppURL    string `env:"APP_URL" default:"http://localhost:8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// Optional transcript sources. Empty disables the subscriber.
	RedisURL            string `env:"REDIS_URL"`
	RedisChannelPattern string `env:"REDIS_CHANNEL_PATTERN" default:"transcript:*"`
	NATSURL             string `env:"NATS_URL"`
	NATSSubject         string `env:"NATS_SUBJECT" default:"transcript.*"`

	// Extra origins allowed to open WebSocket subscriptions, comma separated.
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`

	BufferCapacity           int           `env:"BUFFER_CAPACITY" default:"500"`
	SendQueueSize            int           `env:"SEND_QUEUE_SIZE" default:"64"`
	SlowConsumerLag          int           `env:"SLOW_CONSUMER_LAG" default:"256"`
	MaxConnectionsPerSession int           `env:"MAX_CONNECTIONS_PER_SESSION" default:"50"`
	MaxWebSocketConnections  int           `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
	IdleTimeout              time.Duration `env:"IDLE_TIMEOUT" default:"30m"`
	ReapInterval             time.Duration `env:"REAP_INTERVAL" default:"1m"`

	IngestRatePerSecond float64 `env:"INGEST_RATE_PER_SECOND" default:"50"`
	IngestBurst         int     `env:"INGEST_BURST" default:"100"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Origins returns APP_URL plus ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	origins := []string{strings.TrimRight(c.AppURL, "/")}
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, strings.TrimRight(o, "/"))
		}
	}
	return origins
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	positive := []struct {
		name  string
		value int
	}{
		{"BUFFER_CAPACITY", cfg.BufferCapacity},
		{"SEND_QUEUE_SIZE", cfg.SendQueueSize},
		{"SLOW_CONSUMER_LAG", cfg.SlowConsumerLag},
		{"MAX_CONNECTIONS_PER_SESSION", cfg.MaxConnectionsPerSession},
		{"MAX_WEBSOCKET_CONNECTIONS", cfg.MaxWebSocketConnections},
		{"INGEST_BURST", cfg.IngestBurst},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}

	// Slow subscribers must be dropped before the ring evicts what they have not read.
	if cfg.SlowConsumerLag >= cfg.BufferCapacity {
		return fmt.Errorf("SLOW_CONSUMER_LAG (%d) must be less than BUFFER_CAPACITY (%d)", cfg.SlowConsumerLag, cfg.BufferCapacity)
	}

	if cfg.IdleTimeout <= 0 || cfg.ReapInterval <= 0 {
		return errors.New("IDLE_TIMEOUT and REAP_INTERVAL must be positive")
	}
	if cfg.IngestRatePerSecond <= 0 {
		return fmt.Errorf("INGEST_RATE_PER_SECOND must be positive, got %v", cfg.IngestRatePerSecond)
	}

	if _, err := url.ParseRequestURI(cfg.AppURL); err != nil {
		return fmt.Errorf("APP_URL must be an absolute URL: %w", err)
	}
	if cfg.RedisURL != "" && !strings.HasPrefix(cfg.RedisURL, "redis://") && !strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return errors.New("REDIS_URL must use the redis:// or rediss:// scheme")
	}
	if cfg.NATSURL != "" && !strings.HasPrefix(cfg.NATSURL, "nats://") && !strings.HasPrefix(cfg.NATSURL, "tls://") {
		return errors.New("NATS_URL must use the nats:// or tls:// scheme")
	}

	return nil
}
