package ai

import (
	"fmt"
	"strings"

	"github.com/gokatarajesh/certprep/internal/question"
)

const systemPrompt = `You are a world-class CISSP certification instructor and subject matter expert. ` +
	`Prepare candidates for the (ISC)² exam from the manager's perspective: risk management, business continuity ` +
	`and the protection of organizational assets. Avoid rote-memorization questions; apply the CISSP Common Body ` +
	`of Knowledge to realistic professional situations. Respond with JSON only.`

var difficultyRubric = map[question.Difficulty]string{
	question.DifficultyEasy:   "Focus on fundamental concepts, definitions, and basic security principles. Questions should test 'Knowledge' and 'Comprehension'.",
	question.DifficultyMedium: "Focus on the application of security controls. Use scenarios that require 'Application' and 'Analysis'.",
	question.DifficultyHard:   "Focus on strategic judgment and complex decision-making. Questions should test 'Evaluation' and 'Synthesis', often requiring the BEST, MOST, or FIRST action among several plausible options.",
}

// buildUserPrompt asks for exactly one question per assignment.
func buildUserPrompt(req question.GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d unique, high-quality CISSP practice exam questions.\n\n", len(req.Assignments))
	fmt.Fprintf(&b, "Difficulty Level: %s (%s)\n\n", req.Difficulty, difficultyRubric[req.Difficulty])

	b.WriteString("Write exactly one question for each of these assigned sub-topics, in this order. ")
	b.WriteString("Copy the sub-topic text verbatim into the subTopic field and the domain into the domain field:\n")
	for i, a := range req.Assignments {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, a.Domain, a.Topic)
	}

	b.WriteString(`
Requirements:
1. Format: Scenario-based. Each question must provide a realistic professional context.
2. Options: Provide exactly 4 plausible multiple-choice options.
3. Distractors: Distractors should be technically accurate security concepts but incorrect for the specific scenario or less effective than the correct answer.
4. Explanation: Explain why the correct answer is superior and briefly why each distractor is incorrect or less ideal.
5. correctAnswerIndex is the zero-based index (0-3) of the correct option.
`)

	if len(req.PreviousQuestions) > 0 {
		b.WriteString("\nCRITICAL: Do NOT repeat or rephrase any of these previously asked questions:\n")
		for i, q := range req.PreviousQuestions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q)
		}
	}

	b.WriteString(`
Respond with a single JSON object of the form:
{"questions":[{"domain":"...","subTopic":"...","question":"...","options":["...","...","...","..."],"correctAnswerIndex":0,"explanation":"...","difficulty":"` + string(req.Difficulty) + `"}]}`)
	return b.String()
}
