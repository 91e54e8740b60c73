package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/certprep/internal/question"
)

func TestGeneratorGenerate(t *testing.T) {
	var got generatorRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(generatorResponse{Questions: []aiQuestion{
			validItem("What does ESP provide?", "IPsec"),
			validItem("Which retention rule applies?", "Data Retention"),
		}})
	}))
	defer srv.Close()

	gen := NewGenerator(Config{GeneratorURL: srv.URL + "/", GeneratorKey: "secret", Timeout: time.Second}, zerolog.Nop())
	qs, err := gen.Generate(context.Background(), question.GenerateRequest{
		Difficulty:        question.DifficultyMedium,
		Model:             "claude-haiku-4-5",
		Assignments:       testAssignments,
		PreviousQuestions: []string{"seen?"},
	})
	require.NoError(t, err)
	require.Len(t, qs, 2)

	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "Medium", got.Difficulty)
	assert.Equal(t, "claude-haiku-4-5", got.Model)
	assert.Equal(t, testAssignments, got.Assignments)
	assert.Equal(t, []string{"seen?"}, got.PreviousQuestions)

	assert.Equal(t, "IPsec", qs[0].SubTopic)
	assert.Equal(t, question.DifficultyMedium, qs[0].Difficulty)
	assert.Equal(t, question.QuestionID("What does ESP provide?"), qs[0].ID)
}

func TestGeneratorUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gen := NewGenerator(Config{GeneratorURL: srv.URL}, zerolog.Nop())
	_, err := gen.Generate(context.Background(), question.GenerateRequest{Difficulty: question.DifficultyEasy, Assignments: testAssignments})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestGeneratorNotConfigured(t *testing.T) {
	gen := NewGenerator(Config{}, zerolog.Nop())
	_, err := gen.Generate(context.Background(), question.GenerateRequest{Difficulty: question.DifficultyEasy, Assignments: testAssignments})
	assert.ErrorIs(t, err, question.ErrGeneratorNotConfigured)
}
