package question

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Difficulty is the stated difficulty of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty accepts only the three enumerated values.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch d := Difficulty(raw); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	}
	return "", ErrInvalidDifficulty
}

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

// Question is a bank row. Counters and the quality score are server-side only.
type Question struct {
	ID                 string     `json:"id"`
	Domain             Domain     `json:"domain"`
	SubTopic           string     `json:"subTopic"`
	Difficulty         Difficulty `json:"difficulty"`
	Question           string     `json:"question"`
	Options            []string   `json:"options"`
	CorrectAnswerIndex int        `json:"correctAnswerIndex"`
	Explanation        string     `json:"explanation"`

	QualityScore  float64 `json:"-"`
	TimesServed   int     `json:"-"`
	TimesAnswered int     `json:"-"`
	CorrectCount  int     `json:"-"`
	CorrectRate   float64 `json:"-"`
}

// TopicAssignment directs one batch slot at a sub-topic.
type TopicAssignment struct {
	Domain Domain `json:"domain"`
	Topic  string `json:"topic"`
}

// BatchRequest carries the client-held session state explicitly.
type BatchRequest struct {
	Count             int
	Difficulty        Difficulty
	Model             string
	PreviousQuestions []string
	CoveredTopics     []string
}

// GenerateRequest is handed to the Generator for the slots the bank could not fill.
type GenerateRequest struct {
	Difficulty        Difficulty
	Model             string
	Assignments       []TopicAssignment
	PreviousQuestions []string
}

// QuestionID derives the stable id of a question from its text.
// Case and surrounding whitespace do not change the id.
func QuestionID(text string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return hex.EncodeToString(sum[:8])
}

// IDs returns the ids of qs in order.
func IDs(qs []Question) []string {
	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	return ids
}
