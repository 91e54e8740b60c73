package ai

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/certprep/internal/question"
)

func intPtr(v int) *int { return &v }

func validItem(text, topic string) aiQuestion {
	return aiQuestion{
		Domain:             string(question.DomainAssetSecurity),
		SubTopic:           topic,
		Question:           text,
		Options:            []string{" a ", "b", "c", "d"},
		CorrectAnswerIndex: intPtr(2),
		Explanation:        "because",
		Difficulty:         "Easy",
	}
}

var testAssignments = []question.TopicAssignment{
	{Domain: question.DomainAssetSecurity, Topic: "Data Retention"},
	{Domain: question.DomainNetworkSecurity, Topic: "IPsec"},
}

func TestParseResponseStripsCodeFences(t *testing.T) {
	body := "```json\n{\"questions\":[{\"question\":\"q?\"}]}\n```"
	resp, err := parseResponse(body)
	require.NoError(t, err)
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, "q?", resp.Questions[0].Question)

	_, err = parseResponse("I cannot help with that")
	assert.Error(t, err)
}

func TestNormalizeQuestions(t *testing.T) {
	req := question.GenerateRequest{Difficulty: question.DifficultyHard, Assignments: testAssignments}

	items := []aiQuestion{
		validItem("  What is IPsec tunnel mode?  ", "IPsec"),
		validItem("How long should logs be kept?", "Something Else"),
	}
	items[0].ID = "model-made-up"

	got, err := normalizeQuestions(items, req, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "What is IPsec tunnel mode?", got[0].Question)
	assert.Equal(t, question.QuestionID("What is IPsec tunnel mode?"), got[0].ID)
	assert.Equal(t, "IPsec", got[0].SubTopic)
	assert.Equal(t, question.DomainNetworkSecurity, got[0].Domain)
	assert.Equal(t, question.DifficultyHard, got[0].Difficulty)
	assert.Equal(t, "a", got[0].Options[0])
	assert.Equal(t, 2, got[0].CorrectAnswerIndex)
	assert.Equal(t, question.DefaultQualityScore, got[0].QualityScore)

	// The first record already took IPsec, so the unknown sub-topic gets the
	// remaining free assignment.
	assert.Equal(t, "Data Retention", got[1].SubTopic)
}

func TestNormalizeQuestionsRepeatedTopicTakesNextFreeAssignment(t *testing.T) {
	req := question.GenerateRequest{Difficulty: question.DifficultyEasy, Assignments: testAssignments}

	got, err := normalizeQuestions([]aiQuestion{
		validItem("First retention question?", "Data Retention"),
		validItem("Second retention question?", "Data Retention"),
	}, req, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Data Retention", got[0].SubTopic)
	assert.Equal(t, "IPsec", got[1].SubTopic)
	assert.Equal(t, question.DomainNetworkSecurity, got[1].Domain)
}

func TestNormalizeQuestionsDropsMalformedRecords(t *testing.T) {
	req := question.GenerateRequest{Difficulty: question.DifficultyEasy, Assignments: append(testAssignments,
		question.TopicAssignment{Domain: question.DomainAssetSecurity, Topic: "Data Remanence"},
		question.TopicAssignment{Domain: question.DomainAssetSecurity, Topic: "Data Classification"},
		question.TopicAssignment{Domain: question.DomainAssetSecurity, Topic: "Asset Inventory"},
	)}

	threeOptions := validItem("three options?", "IPsec")
	threeOptions.Options = threeOptions.Options[:3]
	noAnswer := validItem("no answer?", "IPsec")
	noAnswer.CorrectAnswerIndex = nil
	outOfRange := validItem("out of range?", "IPsec")
	outOfRange.CorrectAnswerIndex = intPtr(4)
	blankOption := validItem("blank option?", "IPsec")
	blankOption.Options[3] = "  "

	got, err := normalizeQuestions([]aiQuestion{
		threeOptions, noAnswer, outOfRange, blankOption, validItem("fine?", "Data Retention"),
	}, req, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fine?", got[0].Question)
}

func TestNormalizeQuestionsCapsToAssignments(t *testing.T) {
	req := question.GenerateRequest{Difficulty: question.DifficultyEasy, Assignments: testAssignments[:1]}
	got, err := normalizeQuestions([]aiQuestion{
		validItem("one?", "Data Retention"),
		validItem("two?", "Data Retention"),
	}, req, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNormalizeQuestionsRejectsUnusableReplies(t *testing.T) {
	req := question.GenerateRequest{Difficulty: question.DifficultyEasy, Assignments: testAssignments}

	_, err := normalizeQuestions(nil, req, zerolog.Nop())
	assert.Error(t, err)

	bad := validItem("", "IPsec")
	_, err = normalizeQuestions([]aiQuestion{bad}, req, zerolog.Nop())
	assert.Error(t, err)
}

func TestBuildUserPrompt(t *testing.T) {
	prompt := buildUserPrompt(question.GenerateRequest{
		Difficulty:        question.DifficultyMedium,
		Assignments:       testAssignments,
		PreviousQuestions: []string{"Old question one?"},
	})
	assert.Contains(t, prompt, "Generate 2 unique")
	assert.Contains(t, prompt, "1. [Asset Security] Data Retention")
	assert.Contains(t, prompt, "2. [Communication and Network Security] IPsec")
	assert.Contains(t, prompt, "Old question one?")
	assert.Contains(t, prompt, `"difficulty":"Medium"`)

	noHistory := buildUserPrompt(question.GenerateRequest{Difficulty: question.DifficultyEasy, Assignments: testAssignments})
	assert.NotContains(t, noHistory, "previously asked")
}
