package question

// Quality scoring bounds and steps.
const (
	DefaultQualityScore   = 1.0
	MinQualityScore       = 0.1
	MaxQualityScore       = 2.0
	QualityPenalty        = 0.05
	QualityReward         = 0.02
	MinAnswersForScoring  = 5
	ServeQualityThreshold = 0.3
)

// FeedbackStats is the post-update state of a question after a feedback event.
type FeedbackStats struct {
	Difficulty    Difficulty
	TimesAnswered int
	CorrectRate   float64
}

// ApplyQualityScore returns the adjusted quality score for a question.
// At most one rule applies per call; the result stays within
// [MinQualityScore, MaxQualityScore].
func ApplyQualityScore(current float64, stats FeedbackStats) float64 {
	if stats.TimesAnswered < MinAnswersForScoring {
		return current
	}

	score := current
	switch {
	case stats.CorrectRate > 0.90 && (stats.Difficulty == DifficultyEasy || stats.Difficulty == DifficultyMedium):
		// distractors too weak
		score -= QualityPenalty
	case stats.CorrectRate < 0.20 && stats.Difficulty == DifficultyEasy:
		// misleading for its stated difficulty
		score -= QualityPenalty
	case stats.CorrectRate >= 0.40 && stats.CorrectRate <= 0.70:
		score += QualityReward
	default:
		return current
	}
	return clampQuality(score)
}

func clampQuality(score float64) float64 {
	if score < MinQualityScore {
		return MinQualityScore
	}
	if score > MaxQualityScore {
		return MaxQualityScore
	}
	return score
}
