package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "agora"

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string   `split_words:"true" default:"agora"`
	HTTPPort     string   `envconfig:"HTTP_PORT" default:"8080"`
	PostgresDSN  string   `envconfig:"POSTGRES_DSN"`
	SQLitePath   string   `envconfig:"SQLITE_PATH"`
	KafkaBrokers []string `split_words:"true" default:"localhost:9092"`

	JWTSecret   string `envconfig:"JWT_SECRET"`
	JWTIssuer   string `envconfig:"JWT_ISSUER"`
	JWTAudience string `envconfig:"JWT_AUDIENCE"`

	PolicyFile     string        `split_words:"true"`
	IdempotencyTTL time.Duration `split_words:"true" default:"24h"`

	SweepInterval       time.Duration `split_words:"true" default:"30s"`
	RelayInterval       time.Duration `split_words:"true" default:"2s"`
	OutboxBatchSize     int           `split_words:"true" default:"100"`
	EnableRoundSweeper  bool          `split_words:"true" default:"true"`
	AutoResolveRounds   bool          `split_words:"true" default:"false"`
	EnableAuditConsumer bool          `split_words:"true" default:"true"`

	LogLevel string `split_words:"true" default:"info"`
}

// Load reads an optional .env file, then AGORA_* environment variables.
func Load() (Config, error) {
	return LoadFrom(".env")
}

func LoadFrom(envFiles ...string) (Config, error) {
	for _, file := range envFiles {
		if strings.TrimSpace(file) == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	brokers := cfg.KafkaBrokers[:0]
	for _, value := range cfg.KafkaBrokers {
		if value = strings.TrimSpace(value); value != "" {
			brokers = append(brokers, value)
		}
	}
	cfg.KafkaBrokers = brokers
	if cfg.OutboxBatchSize <= 0 {
		cfg.OutboxBatchSize = 100
	}
	return cfg, nil
}

// DatabaseDriver reports which gorm dialector the config selects. Postgres
// wins when both are set.
func (c Config) DatabaseDriver() string {
	switch {
	case strings.TrimSpace(c.PostgresDSN) != "":
		return "postgres"
	case strings.TrimSpace(c.SQLitePath) != "":
		return "sqlite"
	default:
		return "memory"
	}
}
