package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/certprep/internal/question"
)

const defaultAnthropicModel = "claude-haiku-4-5"

// AnthropicConfig configures direct generation through the Anthropic Messages API.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxTokens    int64
	Attempts     int
}

// AnthropicGenerator implements question.Generator on the Anthropic SDK.
type AnthropicGenerator struct {
	client *anthropic.Client
	config AnthropicConfig
	logger zerolog.Logger
}

var _ question.Generator = (*AnthropicGenerator)(nil)

func NewAnthropicGenerator(cfg AnthropicConfig, logger zerolog.Logger) *AnthropicGenerator {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = defaultAnthropicModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 2
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	return &AnthropicGenerator{
		client: &client,
		config: cfg,
		logger: logger.With().Str("component", "anthropic_generator").Logger(),
	}
}

// Generate asks the model for one question per assignment.
func (g *AnthropicGenerator) Generate(ctx context.Context, req question.GenerateRequest) ([]question.Question, error) {
	if g.config.APIKey == "" {
		return nil, question.ErrGeneratorNotConfigured
	}

	model := req.Model
	if model == "" {
		model = g.config.DefaultModel
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   g.config.MaxTokens,
		Temperature: param.NewOpt(0.8),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(req))),
		},
	}

	message, err := g.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	if string(message.StopReason) == "refusal" {
		return nil, fmt.Errorf("the AI service declined to generate questions")
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("the AI returned an empty response")
	}

	g.logger.Debug().
		Str("model", model).
		Int64("input_tokens", message.Usage.InputTokens).
		Int64("output_tokens", message.Usage.OutputTokens).
		Msg("generation completed")

	parsed, err := parseResponse(text)
	if err != nil {
		return nil, err
	}
	return normalizeQuestions(parsed.Questions, req, g.logger)
}

func (g *AnthropicGenerator) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < g.config.Attempts; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt)) * time.Second
			g.logger.Warn().Err(lastErr).Dur("backoff", wait).Int("attempt", attempt+1).Msg("retrying anthropic call")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		message, err := g.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("anthropic API failed after %d attempts: %w", g.config.Attempts, lastErr)
}
