package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/certprep/internal/config"
	"github.com/gokatarajesh/certprep/internal/logging"
	"github.com/gokatarajesh/certprep/internal/question"
	httperrors "github.com/gokatarajesh/certprep/pkg/http/errors"
)

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// NewHTTPServer wires the question routes plus health, ping and metrics.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, questions *question.HTTPHandler, checks map[string]HealthCheck) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(cfg.CORS, logger, questions, checks),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the routed, CORS-wrapped handler tree.
func NewHandler(corsCfg config.CORS, logger zerolog.Logger, questions *question.HTTPHandler, checks map[string]HealthCheck) http.Handler {
	r := mux.NewRouter()
	r.Use(requestLogger(logger))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if name, err := pingDependencies(ctx, checks); err != nil {
			reqLogger := logging.FromContextOr(ctx, logger)
			reqLogger.Error().Err(err).Str("dependency", name).Msg("dependency ping failed")
			httperrors.RespondBadGateway(w, httperrors.ErrCodeUpstreamError, name+" unreachable")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	}).Methods(http.MethodGet)

	if questions != nil {
		api := r.PathPrefix("/v1").Subrouter()
		api.HandleFunc("/questions", questions.HandleBatch).Methods(http.MethodPost)
		api.HandleFunc("/feedback", questions.HandleFeedback).Methods(http.MethodPost)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   corsCfg.AllowedMethods,
		AllowedHeaders:   corsCfg.AllowedHeaders,
		AllowCredentials: corsCfg.AllowCredentials,
		MaxAge:           corsCfg.MaxAge,
	})
	return c.Handler(r)
}

// pingDependencies checks in name order and stops at the first failure.
func pingDependencies(ctx context.Context, checks map[string]HealthCheck) (string, error) {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			return name, err
		}
	}
	return "", nil
}

// requestLogger tags every request with a request id and stores a scoped
// logger in its context.
func requestLogger(base zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			logger := base.With().
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()

			start := time.Now()
			next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), logger)))
			logger.Debug().Dur("elapsed", time.Since(start)).Msg("request handled")
		})
	}
}
