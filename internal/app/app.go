package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/certprep/internal/config"
	"github.com/gokatarajesh/certprep/internal/db/repository"
	"github.com/gokatarajesh/certprep/internal/logging"
	"github.com/gokatarajesh/certprep/internal/question"
	"github.com/gokatarajesh/certprep/internal/question/ai"
	"github.com/gokatarajesh/certprep/internal/server"
)

// Application aggregates shared infrastructure (bank store, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool   *pgxpool.Pool
	sqlite *sql.DB
	redis  *redis.Client
	http   *http.Server

	bookkeeper *question.BookkeepingWorker
}

// New bootstraps logger, question bank, miss cache, generator and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Str("store", cfg.Store.Driver).Msg("starting application bootstrap")

	a := &Application{cfg: cfg, logger: logger}
	checks := make(map[string]server.HealthCheck)

	bankOpts := repository.BankOptions{
		LookupTimeout:     cfg.Bank.LookupTimeout,
		LookupConcurrency: cfg.Bank.LookupConcurrency,
	}

	var store question.Store
	switch cfg.Store.Driver {
	case "sqlite":
		db, err := repository.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.sqlite = db
		store = repository.NewSQLiteQuestionRepository(db, bankOpts)
		checks["sqlite"] = db.PingContext
	default:
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		store = repository.NewQuestionRepository(pool, bankOpts)
		checks["postgres"] = pool.Ping
	}

	var missCache question.MissCache
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		missCache = question.NewCache(a.redis, cfg.Bank.MissTTL)
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; bank miss cache disabled")
	}

	generator := newGenerator(cfg.AI, logger)

	a.bookkeeper = question.NewBookkeepingWorker(cfg.Runtime.BookkeepingQueueSize, logger, cfg.Runtime.BookkeepingTimeout)

	questionSvc := question.NewService(store, missCache, generator, a.bookkeeper, question.ServiceOptions{}, logger)
	questionHTTP := question.NewHTTPHandler(questionSvc, question.Limits{
		DefaultBatchSize:     cfg.Runtime.DefaultBatchSize,
		MaxBatchSize:         cfg.Runtime.MaxBatchSize,
		MaxPreviousQuestions: cfg.Runtime.MaxPreviousQuestions,
		MaxCoveredTopics:     cfg.Runtime.MaxCoveredTopics,
		DefaultDifficulty:    question.DifficultyMedium,
		DefaultModel:         cfg.AI.DefaultModel,
		AllowedModels:        cfg.AI.AllowedModels,
	}, logger)

	a.http = server.NewHTTPServer(cfg, logger, questionHTTP, checks)
	return a, nil
}

// newGenerator prefers the Anthropic API, then a remote generator service.
// Returning nil leaves the service to report a configuration error whenever
// the bank cannot fill a batch.
func newGenerator(cfg config.AI, logger zerolog.Logger) question.Generator {
	switch {
	case cfg.AnthropicAPIKey != "":
		return ai.NewAnthropicGenerator(ai.AnthropicConfig{
			APIKey:       cfg.AnthropicAPIKey,
			BaseURL:      cfg.AnthropicBaseURL,
			DefaultModel: cfg.DefaultModel,
			MaxTokens:    cfg.MaxTokens,
		}, logger)
	case cfg.GeneratorURL != "":
		return ai.NewGenerator(ai.Config{
			GeneratorURL: cfg.GeneratorURL,
			GeneratorKey: cfg.GeneratorKey,
			Timeout:      cfg.HTTPTimeout,
		}, logger)
	default:
		logger.Warn().Msg("no question generator configured (set ANTHROPIC_API_KEY or AI_GENERATOR_URL)")
		return nil
	}
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go a.bookkeeper.Run()

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	// Pending bank writes need the store, so drain before closing it.
	a.bookkeeper.Stop()

	if a.pool != nil {
		a.pool.Close()
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			a.logger.Error().Err(err).Msg("sqlite shutdown error")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return runErr
}
