package question

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
)

// Service assembles question batches from the bank and the generator.
type Service struct {
	store      Store
	cache      MissCache
	generator  Generator
	bookkeeper Bookkeeper
	selector   *TopicSelector
	logger     zerolog.Logger
}

type ServiceOptions struct {
	// Selector overrides the default CISSP topic selector.
	Selector *TopicSelector
}

// NewService wires the batch assembler. store, cache, generator and
// bookkeeper may each be nil: without a store every slot is generated, without
// a bookkeeper nothing is written back.
func NewService(store Store, cache MissCache, generator Generator, bookkeeper Bookkeeper, opts ServiceOptions, logger zerolog.Logger) *Service {
	selector := opts.Selector
	if selector == nil {
		selector = NewTopicSelector()
	}
	return &Service{
		store:      store,
		cache:      cache,
		generator:  generator,
		bookkeeper: bookkeeper,
		selector:   selector,
		logger:     logger.With().Str("component", "question_service").Logger(),
	}
}

// AssembleBatch returns up to req.Count questions, banked ones first. The bank
// is an optimization: store failures degrade to generation and are never
// returned.
func (s *Service) AssembleBatch(ctx context.Context, req BatchRequest) ([]Question, error) {
	assignments := s.selector.SelectUncoveredTopics(req.Count, req.CoveredTopics)
	topics := make([]string, 0, len(assignments))
	for _, a := range assignments {
		topics = append(topics, a.Topic)
	}

	banked := s.fetchBanked(ctx, req.Difficulty, topics, req.Count, req.PreviousQuestions)

	bankedTopics := make(map[string]struct{}, len(banked))
	for _, q := range banked {
		bankedTopics[q.SubTopic] = struct{}{}
	}
	var remaining []TopicAssignment
	for _, a := range assignments {
		if _, ok := bankedTopics[a.Topic]; !ok {
			remaining = append(remaining, a)
		}
	}

	var generated []Question
	if len(remaining) > 0 {
		var err error
		generated, err = s.generate(ctx, GenerateRequest{
			Difficulty:        req.Difficulty,
			Model:             req.Model,
			Assignments:       remaining,
			PreviousQuestions: req.PreviousQuestions,
		})
		if err != nil {
			return nil, err
		}
	}

	result := MergeUniqueQuestions(banked, generated, req.Count)
	bankHits.Add(float64(len(banked)))
	bankMisses.Add(float64(len(remaining)))

	s.logger.Debug().
		Str("difficulty", string(req.Difficulty)).
		Int("requested", req.Count).
		Int("banked", len(banked)).
		Int("generated", len(generated)).
		Int("returned", len(result)).
		Msg("batch assembled")

	s.scheduleBookkeeping(generated, IDs(result))
	return result, nil
}

func (s *Service) fetchBanked(ctx context.Context, difficulty Difficulty, topics []string, limit int, excluded []string) []Question {
	if s.store == nil || len(topics) == 0 {
		return nil
	}

	lookup := topics
	if s.cache != nil {
		missing, err := s.cache.Missing(ctx, difficulty, topics)
		if err != nil {
			s.logger.Warn().Err(err).Msg("miss cache read failed")
		} else if len(missing) > 0 {
			lookup = make([]string, 0, len(topics))
			for _, topic := range topics {
				if !missing[topic] {
					lookup = append(lookup, topic)
				}
			}
		}
	}
	if len(lookup) == 0 {
		return nil
	}

	rows, err := s.store.QueryBanked(ctx, difficulty, lookup, limit, excluded)
	if err != nil {
		storeErrors.WithLabelValues("query_banked").Inc()
		s.logger.Warn().Err(err).Int("rows", len(rows)).Msg("bank lookup degraded, falling back to generation")
		return rows
	}

	// A miss without exclusions is a miss for every exclusion set.
	if s.cache != nil && len(excluded) == 0 {
		found := make(map[string]struct{}, len(rows))
		for _, q := range rows {
			found[q.SubTopic] = struct{}{}
		}
		var empty []string
		for _, topic := range UniqueTopics(lookup, limit) {
			if _, ok := found[topic]; !ok {
				empty = append(empty, topic)
			}
		}
		if err := s.cache.MarkMissing(ctx, difficulty, empty); err != nil {
			s.logger.Warn().Err(err).Msg("miss cache write failed")
		}
	}
	return rows
}

func (s *Service) generate(ctx context.Context, req GenerateRequest) ([]Question, error) {
	if s.generator == nil {
		return nil, ErrGeneratorNotConfigured
	}

	qs, err := s.generator.Generate(ctx, req)
	if err != nil {
		generationFailures.Inc()
		if errors.Is(err, ErrGeneratorNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if len(qs) == 0 {
		generationFailures.Inc()
		return nil, fmt.Errorf("%w: generator returned no questions", ErrGenerationFailed)
	}

	for i := range qs {
		qs[i].ID = QuestionID(qs[i].Question)
		if qs[i].Difficulty == "" {
			qs[i].Difficulty = req.Difficulty
		}
		if qs[i].QualityScore == 0 {
			qs[i].QualityScore = DefaultQualityScore
		}
	}
	generatedQuestions.Add(float64(len(qs)))
	return qs, nil
}

// scheduleBookkeeping persists generated questions and bumps serve counters in
// one background task, save first so new rows are counted too.
func (s *Service) scheduleBookkeeping(generated []Question, servedIDs []string) {
	if s.store == nil || s.bookkeeper == nil {
		return
	}
	s.bookkeeper.Submit(Task{
		Name: "persist_batch",
		Run: func(ctx context.Context) error {
			var errs []error
			if len(generated) > 0 {
				if err := s.store.Save(ctx, generated); err != nil {
					storeErrors.WithLabelValues("save").Inc()
					errs = append(errs, fmt.Errorf("save generated: %w", err))
				} else if s.cache != nil {
					if err := s.cache.Clear(ctx, generated); err != nil {
						errs = append(errs, fmt.Errorf("clear miss cache: %w", err))
					}
				}
			}
			if len(servedIDs) > 0 {
				if err := s.store.IncrementServed(ctx, servedIDs); err != nil {
					storeErrors.WithLabelValues("increment_served").Inc()
					errs = append(errs, fmt.Errorf("increment served: %w", err))
				}
			}
			return errors.Join(errs...)
		},
	})
}

// RecordFeedback records a first answer for a question. Failures are logged
// and swallowed.
func (s *Service) RecordFeedback(ctx context.Context, id string, isCorrect bool) {
	feedbackEvents.WithLabelValues(strconv.FormatBool(isCorrect)).Inc()
	if s.store == nil {
		return
	}
	if err := s.store.RecordFeedback(ctx, id, isCorrect); err != nil {
		if errors.Is(err, ErrQuestionNotFound) {
			s.logger.Debug().Str("question_id", id).Msg("feedback for unknown question ignored")
			return
		}
		storeErrors.WithLabelValues("record_feedback").Inc()
		s.logger.Warn().Err(err).Str("question_id", id).Msg("record feedback failed")
	}
}

// MergeUniqueQuestions concatenates first and second, keeps the first
// occurrence of every id and truncates to count. Entries of first are never
// displaced by entries of second.
func MergeUniqueQuestions(first, second []Question, count int) []Question {
	if count <= 0 {
		return []Question{}
	}
	out := make([]Question, 0, min(count, len(first)+len(second)))
	seen := make(map[string]struct{}, len(first)+len(second))
	for _, src := range [][]Question{first, second} {
		for _, q := range src {
			if len(out) == count {
				return out
			}
			if _, dup := seen[q.ID]; dup {
				continue
			}
			seen[q.ID] = struct{}{}
			out = append(out, q)
		}
	}
	return out
}
