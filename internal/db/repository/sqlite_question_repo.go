package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/gokatarajesh/certprep/internal/question"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS questions (
	id                   TEXT PRIMARY KEY,
	domain               TEXT NOT NULL,
	sub_topic            TEXT NOT NULL DEFAULT '',
	difficulty           TEXT NOT NULL,
	question             TEXT NOT NULL,
	options              TEXT NOT NULL,
	correct_answer_index INTEGER NOT NULL CHECK (correct_answer_index BETWEEN 0 AND 3),
	explanation          TEXT NOT NULL,
	quality_score        REAL NOT NULL DEFAULT 1.0 CHECK (quality_score BETWEEN 0.1 AND 2.0),
	times_served         INTEGER NOT NULL DEFAULT 0,
	times_answered       INTEGER NOT NULL DEFAULT 0,
	correct_count        INTEGER NOT NULL DEFAULT 0 CHECK (correct_count <= times_answered),
	correct_rate         REAL NOT NULL DEFAULT 0,
	created_at           TEXT NOT NULL DEFAULT (datetime('now')),
	updated_at           TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_questions_serving ON questions(difficulty, sub_topic, quality_score, times_served);
`

// OpenSQLite opens (or creates) a SQLite question bank at path and applies the
// schema. Use ":memory:" for an ephemeral bank.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; also keeps every statement on the same in-memory database.
	db.SetMaxOpenConns(1)

	pragmas := []string{`PRAGMA busy_timeout = 5000`}
	if path != ":memory:" {
		pragmas = append(pragmas, `PRAGMA journal_mode = WAL`)
	}
	for _, stmt := range pragmas {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return db, nil
}

// SQLiteQuestionRepository is the question bank for single-node deployments.
type SQLiteQuestionRepository struct {
	db   *sql.DB
	opts BankOptions
}

var _ question.Store = (*SQLiteQuestionRepository)(nil)

func NewSQLiteQuestionRepository(db *sql.DB, opts BankOptions) *SQLiteQuestionRepository {
	return &SQLiteQuestionRepository{db: db, opts: opts.withDefaults()}
}

func sqliteBankedQuery(excluded int) string {
	query := `SELECT ` + questionColumns + `
	FROM questions
	WHERE difficulty = ?
	  AND sub_topic = ?
	  AND quality_score >= ?`
	if excluded > 0 {
		query += "\n\t  AND question NOT IN (" + strings.TrimSuffix(strings.Repeat("?, ", excluded), ", ") + ")"
	}
	return query + "\n\tORDER BY times_served ASC, RANDOM()\n\tLIMIT 1"
}

func (r *SQLiteQuestionRepository) QueryBanked(ctx context.Context, difficulty question.Difficulty, topics []string, limit int, excluded []string) ([]question.Question, error) {
	unique := question.UniqueTopics(topics, limit)
	if len(unique) == 0 {
		return nil, nil
	}

	query := sqliteBankedQuery(len(excluded))
	return fanOutTopics(ctx, unique, r.opts, func(ctx context.Context, topic string) (question.Question, bool, error) {
		args := make([]any, 0, 3+len(excluded))
		args = append(args, string(difficulty), topic, question.ServeQualityThreshold)
		for _, text := range excluded {
			args = append(args, text)
		}

		var (
			q                         question.Question
			domain, diff, optionsJSON string
		)
		err := r.db.QueryRowContext(ctx, query, args...).Scan(
			&q.ID, &domain, &q.SubTopic, &diff, &q.Question, &optionsJSON,
			&q.CorrectAnswerIndex, &q.Explanation,
			&q.QualityScore, &q.TimesServed, &q.TimesAnswered, &q.CorrectCount, &q.CorrectRate,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return question.Question{}, false, nil
		}
		if err != nil {
			return question.Question{}, false, err
		}
		if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
			return question.Question{}, false, fmt.Errorf("decode options of %s: %w", q.ID, err)
		}
		q.Domain = question.Domain(domain)
		q.Difficulty = question.Difficulty(diff)
		return q, true, nil
	})
}

func (r *SQLiteQuestionRepository) Save(ctx context.Context, qs []question.Question) error {
	if len(qs) == 0 {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, q := range qs {
			options, err := json.Marshal(q.Options)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO questions
				 (id, domain, sub_topic, difficulty, question, options, correct_answer_index, explanation)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				q.ID, string(q.Domain), q.SubTopic, string(q.Difficulty),
				q.Question, string(options), q.CorrectAnswerIndex, q.Explanation,
			); err != nil {
				return fmt.Errorf("insert %s: %w", q.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteQuestionRepository) IncrementServed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`UPDATE questions SET times_served = times_served + 1, updated_at = datetime('now') WHERE id = ?`,
				id,
			); err != nil {
				return fmt.Errorf("increment %s: %w", id, err)
			}
		}
		return nil
	})
}

// RecordFeedback runs the counter update and the score adjustment in one
// transaction. The bank holds a single connection, so feedback events are
// fully serialized and every qualifying event applies its step.
func (r *SQLiteQuestionRepository) RecordFeedback(ctx context.Context, id string, isCorrect bool) error {
	correct := 0
	if isCorrect {
		correct = 1
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		var (
			difficulty string
			stats      question.FeedbackStats
			score      float64
		)
		err := tx.QueryRowContext(ctx,
			`UPDATE questions
			 SET times_answered = times_answered + 1,
			     correct_count = correct_count + ?,
			     correct_rate = CAST(correct_count + ? AS REAL) / (times_answered + 1),
			     updated_at = datetime('now')
			 WHERE id = ?
			 RETURNING difficulty, times_answered, correct_rate, quality_score`,
			correct, correct, id,
		).Scan(&difficulty, &stats.TimesAnswered, &stats.CorrectRate, &score)
		if errors.Is(err, sql.ErrNoRows) {
			return question.ErrQuestionNotFound
		}
		if err != nil {
			return fmt.Errorf("record feedback: %w", err)
		}
		stats.Difficulty = question.Difficulty(difficulty)

		next := question.ApplyQualityScore(score, stats)
		if next == score {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE questions SET quality_score = ?, updated_at = datetime('now') WHERE id = ?`,
			next, id,
		); err != nil {
			return fmt.Errorf("update quality score: %w", err)
		}
		return nil
	})
}

func (r *SQLiteQuestionRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
