package question

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/certprep/internal/logging"
	httperrors "github.com/gokatarajesh/certprep/pkg/http/errors"
)

// Limits bounds what a single batch request may ask for.
type Limits struct {
	DefaultBatchSize     int
	MaxBatchSize         int
	MaxPreviousQuestions int
	MaxCoveredTopics     int
	DefaultDifficulty    Difficulty
	DefaultModel         string
	AllowedModels        []string
}

// DefaultLimits mirrors the production defaults.
func DefaultLimits() Limits {
	return Limits{
		DefaultBatchSize:     10,
		MaxBatchSize:         20,
		MaxPreviousQuestions: 20,
		MaxCoveredTopics:     200,
		DefaultDifficulty:    DifficultyMedium,
	}
}

// HTTPHandler exposes the batch and feedback endpoints.
type HTTPHandler struct {
	svc    *Service
	limits Limits
	logger zerolog.Logger
}

func NewHTTPHandler(svc *Service, limits Limits, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		limits: limits,
		logger: logger.With().Str("component", "question_http").Logger(),
	}
}

type batchPayload struct {
	Count             int      `json:"count"`
	Difficulty        string   `json:"difficulty"`
	Model             string   `json:"model"`
	PreviousQuestions []string `json:"previousQuestions"`
	CoveredTopics     []string `json:"coveredTopics"`
}

type batchResponse struct {
	Questions []Question `json:"questions"`
}

type feedbackPayload struct {
	QuestionID string `json:"questionId"`
	IsCorrect  *bool  `json:"isCorrect"`
}

// HandleBatch handles POST /v1/questions
func (h *HTTPHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContextOr(r.Context(), h.logger)

	var payload batchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	req, field, err := h.limits.normalize(payload)
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), field)
		return
	}

	questions, err := h.svc.AssembleBatch(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, ErrGeneratorNotConfigured):
		logger.Error().Err(err).Msg("batch request failed: generator configuration")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeConfigurationError, "Server configuration error")
		return
	case errors.Is(err, ErrGenerationFailed):
		logger.Error().Err(err).Msg("batch request failed: generation")
		httperrors.RespondBadGateway(w, httperrors.ErrCodeGenerationFailed, "Failed to generate questions. Please try again later.")
		return
	default:
		logger.Error().Err(err).Msg("batch request failed")
		httperrors.RespondInternalError(w, "Failed to load questions. Please try again later.")
		return
	}

	if questions == nil {
		questions = []Question{}
	}
	writeJSON(w, http.StatusOK, batchResponse{Questions: questions})
}

// HandleFeedback handles POST /v1/feedback
func (h *HTTPHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	var payload feedbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if payload.QuestionID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "questionId is required", "questionId")
		return
	}
	if payload.IsCorrect == nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "isCorrect is required", "isCorrect")
		return
	}

	h.svc.RecordFeedback(r.Context(), payload.QuestionID, *payload.IsCorrect)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// normalize validates enums and clamps sizes. On failure it also names the
// offending field.
func (l Limits) normalize(p batchPayload) (BatchRequest, string, error) {
	difficulty := l.DefaultDifficulty
	if p.Difficulty != "" {
		d, err := ParseDifficulty(p.Difficulty)
		if err != nil {
			return BatchRequest{}, "difficulty", err
		}
		difficulty = d
	}
	if difficulty == "" {
		return BatchRequest{}, "difficulty", ErrInvalidDifficulty
	}

	model := p.Model
	if model == "" {
		model = l.DefaultModel
	}
	if model != "" && len(l.AllowedModels) > 0 && !contains(l.AllowedModels, model) {
		return BatchRequest{}, "model", ErrInvalidModel
	}

	count := p.Count
	if count == 0 {
		count = l.DefaultBatchSize
	}
	count = max(count, 1)
	if l.MaxBatchSize > 0 {
		count = min(count, l.MaxBatchSize)
	}

	return BatchRequest{
		Count:             count,
		Difficulty:        difficulty,
		Model:             model,
		PreviousQuestions: lastN(p.PreviousQuestions, l.MaxPreviousQuestions),
		CoveredTopics:     lastN(p.CoveredTopics, l.MaxCoveredTopics),
	}, "", nil
}

// lastN keeps the most recent n entries; n <= 0 keeps everything.
func lastN(items []string, n int) []string {
	if n > 0 && len(items) > n {
		return items[len(items)-n:]
	}
	return items
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
