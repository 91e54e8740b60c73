package question

import "context"

// Store is the persisted question bank.
//
// QueryBanked returns at most one row per distinct topic, in topic order, and
// never more than limit rows. A non-nil error means some or all lookups failed;
// the rows that did come back are still valid.
type Store interface {
	QueryBanked(ctx context.Context, difficulty Difficulty, topics []string, limit int, excluded []string) ([]Question, error)
	Save(ctx context.Context, qs []Question) error
	IncrementServed(ctx context.Context, ids []string) error
	RecordFeedback(ctx context.Context, id string, isCorrect bool) error
}

// Generator produces fresh questions for topic assignments the bank could not fill.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]Question, error)
}

// UniqueTopics drops repeated topics, keeps first-seen order and caps the
// result at limit.
func UniqueTopics(topics []string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, min(limit, len(topics)))
	for _, topic := range topics {
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		out = append(out, topic)
		if len(out) == limit {
			break
		}
	}
	return out
}
