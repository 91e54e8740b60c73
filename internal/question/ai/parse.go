package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/certprep/internal/question"
)

type aiQuestion struct {
	ID                 string   `json:"id"`
	Domain             string   `json:"domain"`
	SubTopic           string   `json:"subTopic"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
	Difficulty         string   `json:"difficulty"`
}

type generatorResponse struct {
	Questions []aiQuestion `json:"questions"`
}

// parseResponse decodes a model reply, tolerating markdown code fences.
func parseResponse(body string) (generatorResponse, error) {
	var resp generatorResponse
	if err := json.Unmarshal([]byte(stripCodeFences(body)), &resp); err != nil {
		return generatorResponse{}, fmt.Errorf("decode generator payload: %w", err)
	}
	return resp, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```json"))
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

// normalizeQuestions validates generator output against the question shape.
// Malformed records are dropped; a reply with no usable record is an error.
// Records are pinned to the requested difficulty and to an assigned topic,
// and ids are always derived from the question text.
func normalizeQuestions(items []aiQuestion, req question.GenerateRequest, logger zerolog.Logger) ([]question.Question, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("generator returned empty question set")
	}
	if n := len(req.Assignments); n > 0 && len(items) > n {
		items = items[:n]
	}

	out := make([]question.Question, 0, len(items))
	used := make([]bool, len(req.Assignments))
	for i, item := range items {
		if reason := invalidReason(item); reason != "" {
			logger.Warn().Int("index", i).Str("reason", reason).Msg("dropping malformed generated question")
			continue
		}
		domain, topic := assignTopic(item, i, req.Assignments, used)
		options := make([]string, len(item.Options))
		for j, opt := range item.Options {
			options[j] = strings.TrimSpace(opt)
		}
		text := strings.TrimSpace(item.Question)
		out = append(out, question.Question{
			ID:                 question.QuestionID(text),
			Domain:             domain,
			SubTopic:           topic,
			Difficulty:         req.Difficulty,
			Question:           text,
			Options:            options,
			CorrectAnswerIndex: *item.CorrectAnswerIndex,
			Explanation:        strings.TrimSpace(item.Explanation),
			QualityScore:       question.DefaultQualityScore,
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("generator returned no valid questions")
	}
	return out, nil
}

func invalidReason(item aiQuestion) string {
	switch {
	case strings.TrimSpace(item.Question) == "":
		return "empty question text"
	case len(item.Options) != question.OptionCount:
		return fmt.Sprintf("expected %d options, got %d", question.OptionCount, len(item.Options))
	case item.CorrectAnswerIndex == nil:
		return "missing correctAnswerIndex"
	case *item.CorrectAnswerIndex < 0 || *item.CorrectAnswerIndex >= question.OptionCount:
		return fmt.Sprintf("correctAnswerIndex %d out of range", *item.CorrectAnswerIndex)
	case strings.TrimSpace(item.Explanation) == "":
		return "empty explanation"
	}
	for _, opt := range item.Options {
		if strings.TrimSpace(opt) == "" {
			return "empty option"
		}
	}
	return ""
}

// assignTopic keeps the record's sub-topic when it names an assignment not
// yet taken. Otherwise the record takes the assignment in the same position,
// or failing that the first free one, so no assignment is served twice.
func assignTopic(item aiQuestion, index int, assignments []question.TopicAssignment, used []bool) (question.Domain, string) {
	take := func(i int) (question.Domain, string) {
		used[i] = true
		return assignments[i].Domain, assignments[i].Topic
	}
	for i, a := range assignments {
		if !used[i] && a.Topic == item.SubTopic {
			return take(i)
		}
	}
	if index < len(assignments) && !used[index] {
		return take(index)
	}
	for i := range assignments {
		if !used[i] {
			return take(i)
		}
	}
	domain := question.Domain(item.Domain)
	if !domain.IsValid() && len(assignments) > 0 {
		domain = assignments[0].Domain
	}
	return domain, item.SubTopic
}
