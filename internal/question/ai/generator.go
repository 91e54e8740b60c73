package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/certprep/internal/question"
)

// Config holds connection details for a remote generator service.
type Config struct {
	GeneratorURL string
	GeneratorKey string
	Timeout      time.Duration
}

// Generator implements question.Generator against a remote generator service.
type Generator struct {
	httpClient  *http.Client
	config      Config
	logger      zerolog.Logger
	generateURL string
}

var _ question.Generator = (*Generator)(nil)

func NewGenerator(cfg Config, logger zerolog.Logger) *Generator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimSuffix(cfg.GeneratorURL, "/")

	return &Generator{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:      cfg,
		logger:      logger.With().Str("component", "ai_generator").Logger(),
		generateURL: base + "/generate",
	}
}

// Generate synchronously requests one question per assignment.
func (g *Generator) Generate(ctx context.Context, req question.GenerateRequest) ([]question.Question, error) {
	if g.config.GeneratorURL == "" {
		return nil, question.ErrGeneratorNotConfigured
	}

	payload := generatorRequest{
		Difficulty:        string(req.Difficulty),
		Model:             req.Model,
		Assignments:       req.Assignments,
		PreviousQuestions: req.PreviousQuestions,
		Count:             len(req.Assignments),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.generateURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.config.GeneratorKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.config.GeneratorKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var genResp generatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("decode generator payload: %w", err)
	}

	return normalizeQuestions(genResp.Questions, req, g.logger)
}

type generatorRequest struct {
	Difficulty        string                     `json:"difficulty"`
	Model             string                     `json:"model,omitempty"`
	Count             int                        `json:"count"`
	Assignments       []question.TopicAssignment `json:"assignments"`
	PreviousQuestions []string                   `json:"previousQuestions"`
}
