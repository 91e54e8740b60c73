package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gokatarajesh/certprep/internal/question"
)

// questionStore is the subset of pgxpool.Pool the repository needs.
type questionStore interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// QuestionRepository is the Postgres question bank.
type QuestionRepository struct {
	store questionStore
	opts  BankOptions
}

var _ question.Store = (*QuestionRepository)(nil)

func NewQuestionRepository(store questionStore, opts BankOptions) *QuestionRepository {
	return &QuestionRepository{store: store, opts: opts.withDefaults()}
}

const questionColumns = `id, domain, sub_topic, difficulty, question, options, correct_answer_index, explanation,
	quality_score, times_served, times_answered, correct_count, correct_rate`

const insertQuestionSQL = `INSERT INTO questions
	(id, domain, sub_topic, difficulty, question, options, correct_answer_index, explanation)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING`

const incrementServedSQL = `UPDATE questions SET times_served = times_served + 1, updated_at = NOW() WHERE id = $1`

const recordFeedbackSQL = `UPDATE questions
	SET times_answered = times_answered + 1,
	    correct_count = correct_count + $2,
	    correct_rate = CAST(correct_count + $2 AS DOUBLE PRECISION) / (times_answered + 1),
	    updated_at = NOW()
	WHERE id = $1
	RETURNING difficulty, times_answered, correct_rate, quality_score`

const updateQualitySQL = `UPDATE questions SET quality_score = $1, updated_at = NOW() WHERE id = $2 AND quality_score = $3`

const feedbackStatsSQL = `SELECT difficulty, times_answered, correct_rate, quality_score FROM questions WHERE id = $1`

// maxQualityAttempts bounds compare-and-set retries under contention.
const maxQualityAttempts = 5

// bankedQuerySQL selects the least-served eligible row for one topic.
// Exclusion placeholders start at $4.
func bankedQuerySQL(excluded int) string {
	var b strings.Builder
	b.WriteString(`SELECT ` + questionColumns + `
	FROM questions
	WHERE difficulty = $1
	  AND sub_topic = $2
	  AND quality_score >= $3`)
	if excluded > 0 {
		placeholders := make([]string, excluded)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", i+4)
		}
		b.WriteString("\n\t  AND question NOT IN (" + strings.Join(placeholders, ", ") + ")")
	}
	b.WriteString("\n\tORDER BY times_served ASC, random()\n\tLIMIT 1")
	return b.String()
}

// QueryBanked runs one lookup per distinct topic, at most limit of them.
func (r *QuestionRepository) QueryBanked(ctx context.Context, difficulty question.Difficulty, topics []string, limit int, excluded []string) ([]question.Question, error) {
	unique := question.UniqueTopics(topics, limit)
	if len(unique) == 0 {
		return nil, nil
	}

	sql := bankedQuerySQL(len(excluded))
	return fanOutTopics(ctx, unique, r.opts, func(ctx context.Context, topic string) (question.Question, bool, error) {
		args := make([]any, 0, 3+len(excluded))
		args = append(args, string(difficulty), topic, question.ServeQualityThreshold)
		for _, text := range excluded {
			args = append(args, text)
		}

		q, err := scanQuestion(r.store.QueryRow(ctx, sql, args...))
		if errors.Is(err, pgx.ErrNoRows) {
			return question.Question{}, false, nil
		}
		if err != nil {
			return question.Question{}, false, err
		}
		return q, true, nil
	})
}

// Save inserts questions whose id is not yet banked. The batch runs as one
// implicit transaction.
func (r *QuestionRepository) Save(ctx context.Context, qs []question.Question) error {
	if len(qs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, q := range qs {
		batch.Queue(insertQuestionSQL,
			q.ID, string(q.Domain), q.SubTopic, string(q.Difficulty),
			q.Question, q.Options, q.CorrectAnswerIndex, q.Explanation)
	}
	return r.execBatch(ctx, batch)
}

// IncrementServed bumps times_served once per listed id.
func (r *QuestionRepository) IncrementServed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(incrementServedSQL, id)
	}
	return r.execBatch(ctx, batch)
}

// RecordFeedback updates answer counters atomically, then nudges the quality
// score with a compare-and-set. A lost race re-reads the row and applies the
// step on top of the winner's score.
func (r *QuestionRepository) RecordFeedback(ctx context.Context, id string, isCorrect bool) error {
	correct := 0
	if isCorrect {
		correct = 1
	}

	stats, score, err := scanFeedbackStats(r.store.QueryRow(ctx, recordFeedbackSQL, id, correct))
	if errors.Is(err, pgx.ErrNoRows) {
		return question.ErrQuestionNotFound
	}
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}

	for attempt := 0; attempt < maxQualityAttempts; attempt++ {
		if attempt > 0 {
			stats, score, err = scanFeedbackStats(r.store.QueryRow(ctx, feedbackStatsSQL, id))
			if err != nil {
				return fmt.Errorf("reload feedback stats: %w", err)
			}
		}

		next := question.ApplyQualityScore(score, stats)
		if next == score {
			return nil
		}
		tag, err := r.store.Exec(ctx, updateQualitySQL, next, id, score)
		if err != nil {
			return fmt.Errorf("update quality score: %w", err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
	}
	return fmt.Errorf("update quality score of %s: still contended after %d attempts", id, maxQualityAttempts)
}

func scanFeedbackStats(row pgx.Row) (question.FeedbackStats, float64, error) {
	var (
		stats      question.FeedbackStats
		difficulty string
		score      float64
	)
	if err := row.Scan(&difficulty, &stats.TimesAnswered, &stats.CorrectRate, &score); err != nil {
		return question.FeedbackStats{}, 0, err
	}
	stats.Difficulty = question.Difficulty(difficulty)
	return stats, score, nil
}

func (r *QuestionRepository) execBatch(ctx context.Context, batch *pgx.Batch) (err error) {
	results := r.store.SendBatch(ctx, batch)
	defer func() {
		if closeErr := results.Close(); err == nil {
			err = closeErr
		}
	}()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
	}
	return nil
}

func scanQuestion(row pgx.Row) (question.Question, error) {
	var (
		q                  question.Question
		domain, difficulty string
	)
	err := row.Scan(
		&q.ID, &domain, &q.SubTopic, &difficulty, &q.Question, &q.Options,
		&q.CorrectAnswerIndex, &q.Explanation,
		&q.QualityScore, &q.TimesServed, &q.TimesAnswered, &q.CorrectCount, &q.CorrectRate,
	)
	if err != nil {
		return question.Question{}, err
	}
	q.Domain = question.Domain(domain)
	q.Difficulty = question.Difficulty(difficulty)
	return q, nil
}
