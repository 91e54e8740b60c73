package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"certprep"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Store    Store
	Postgres Postgres
	Redis    Redis
	Bank     Bank
	Runtime  Runtime
	AI       AI
	CORS     CORS
}

// Store selects the question bank backend.
type Store struct {
	Driver     string `env:"STORE_DRIVER" envDefault:"postgres"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"certprep.db"`
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER"`
	Password string `env:"PG_PASSWORD"`
	Database string `env:"PG_DATABASE"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// ConnString builds a plain libpq-style connection string.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// DSN builds a pgxpool connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("%s pool_max_conns=%d", p.ConnString(), p.MaxConns)
}

// Redis holds the miss cache connection. An empty address disables it.
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Bank tunes question bank lookups.
type Bank struct {
	MissTTL           time.Duration `env:"BANK_MISS_TTL" envDefault:"2m"`
	LookupTimeout     time.Duration `env:"BANK_LOOKUP_TIMEOUT" envDefault:"2s"`
	LookupConcurrency int           `env:"BANK_LOOKUP_CONCURRENCY" envDefault:"8"`
}

// Runtime groups request limits and background bookkeeping.
type Runtime struct {
	DefaultBatchSize     int           `env:"DEFAULT_BATCH_SIZE" envDefault:"10"`
	MaxBatchSize         int           `env:"MAX_BATCH_SIZE" envDefault:"20"`
	MaxPreviousQuestions int           `env:"MAX_PREVIOUS_QUESTIONS" envDefault:"20"`
	MaxCoveredTopics     int           `env:"MAX_COVERED_TOPICS" envDefault:"200"`
	BookkeepingTimeout   time.Duration `env:"BOOKKEEPING_TIMEOUT" envDefault:"5s"`
	BookkeepingQueueSize int           `env:"BOOKKEEPING_QUEUE_SIZE" envDefault:"256"`
}

// AI configures question generation. The Anthropic key takes precedence over
// a remote generator URL.
type AI struct {
	AnthropicAPIKey  string        `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string        `env:"ANTHROPIC_BASE_URL"`
	DefaultModel     string        `env:"AI_DEFAULT_MODEL" envDefault:"claude-haiku-4-5"`
	AllowedModels    []string      `env:"AI_ALLOWED_MODELS" envSeparator:"," envDefault:"claude-haiku-4-5,claude-sonnet-4-5"`
	MaxTokens        int64         `env:"AI_MAX_TOKENS" envDefault:"8192"`
	GeneratorURL     string        `env:"AI_GENERATOR_URL"`
	GeneratorKey     string        `env:"AI_GENERATOR_API_KEY"`
	HTTPTimeout      time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"60s"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,X-Request-ID"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *App) validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Postgres.User == "" || c.Postgres.Database == "" {
			return fmt.Errorf("PG_USER and PG_DATABASE are required when STORE_DRIVER=postgres")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Runtime.MaxBatchSize < 1 {
		return fmt.Errorf("MAX_BATCH_SIZE must be positive")
	}
	return nil
}
