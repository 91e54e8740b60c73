package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/certprep/internal/question"
)

// fakeRow scans fixed values into destinations of the same type.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

func questionRow(q question.Question) fakeRow {
	return fakeRow{values: []any{
		q.ID, string(q.Domain), q.SubTopic, string(q.Difficulty), q.Question, q.Options,
		q.CorrectAnswerIndex, q.Explanation,
		q.QualityScore, q.TimesServed, q.TimesAnswered, q.CorrectCount, q.CorrectRate,
	}}
}

type fakeBatchResults struct {
	execErrs []error
	calls    int
	closed   bool
}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	defer func() { b.calls++ }()
	if b.calls < len(b.execErrs) && b.execErrs[b.calls] != nil {
		return pgconn.CommandTag{}, b.execErrs[b.calls]
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (b *fakeBatchResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }
func (b *fakeBatchResults) QueryRow() pgx.Row       { return fakeRow{err: errors.New("not implemented")} }
func (b *fakeBatchResults) Close() error {
	b.closed = true
	return nil
}

type mockQuestionStore struct {
	mock.Mock
	mu sync.Mutex
}

func (m *mockQuestionStore) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Called(ctx, sql, args).Get(0).(pgx.Row)
}

func (m *mockQuestionStore) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ret := m.Called(ctx, sql, args)
	return ret.Get(0).(pgconn.CommandTag), ret.Error(1)
}

func (m *mockQuestionStore) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return m.Called(ctx, b).Get(0).(pgx.BatchResults)
}

func sampleQuestion(topic string) question.Question {
	text := "What about " + topic + "?"
	return question.Question{
		ID:                 question.QuestionID(text),
		Domain:             question.DomainAssetSecurity,
		SubTopic:           topic,
		Difficulty:         question.DifficultyMedium,
		Question:           text,
		Options:            []string{"a", "b", "c", "d"},
		CorrectAnswerIndex: 3,
		Explanation:        "why",
		QualityScore:       1.0,
	}
}

// topicArg matches QueryRow calls for one topic.
func topicArg(topic string) any {
	return mock.MatchedBy(func(args []any) bool {
		return len(args) >= 2 && args[1] == topic
	})
}

func TestBankedQuerySQL(t *testing.T) {
	plain := bankedQuerySQL(0)
	assert.NotContains(t, plain, "NOT IN")
	assert.Contains(t, plain, "ORDER BY times_served ASC")
	assert.Contains(t, plain, "LIMIT 1")

	excluded := bankedQuerySQL(3)
	assert.Contains(t, excluded, "question NOT IN ($4, $5, $6)")
}

func TestQuestionRepository_QueryBanked(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store, BankOptions{})

	retention := sampleQuestion("Data Retention")
	ipsec := sampleQuestion("IPsec")

	store.On("QueryRow", mock.Anything, mock.Anything, topicArg("Data Retention")).Return(questionRow(retention))
	store.On("QueryRow", mock.Anything, mock.Anything, topicArg("TLS")).Return(fakeRow{err: pgx.ErrNoRows})
	store.On("QueryRow", mock.Anything, mock.Anything, topicArg("IPsec")).Return(questionRow(ipsec))

	got, err := repo.QueryBanked(context.Background(), question.DifficultyMedium,
		[]string{"Data Retention", "TLS", "Data Retention", "IPsec", "Kerberos"}, 3, []string{"old?"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, retention, got[0])
	assert.Equal(t, ipsec, got[1])

	// Duplicate and over-limit topics are never queried.
	store.AssertNumberOfCalls(t, "QueryRow", 3)
	for _, call := range store.Calls {
		args := call.Arguments.Get(2).([]any)
		assert.Equal(t, "Medium", args[0])
		assert.Equal(t, question.ServeQualityThreshold, args[2])
		assert.Equal(t, "old?", args[3])
		assert.True(t, strings.Contains(call.Arguments.String(1), "NOT IN ($4)"))
	}
}

func TestQuestionRepository_QueryBankedPartialFailure(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store, BankOptions{LookupConcurrency: 1})

	ipsec := sampleQuestion("IPsec")
	store.On("QueryRow", mock.Anything, mock.Anything, topicArg("TLS")).Return(fakeRow{err: errors.New("conn reset")})
	store.On("QueryRow", mock.Anything, mock.Anything, topicArg("IPsec")).Return(questionRow(ipsec))

	got, err := repo.QueryBanked(context.Background(), question.DifficultyMedium, []string{"TLS", "IPsec"}, 5, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS")
	require.Len(t, got, 1)
	assert.Equal(t, ipsec.ID, got[0].ID)
}

func TestQuestionRepository_QueryBankedNoTopics(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store, BankOptions{})

	got, err := repo.QueryBanked(context.Background(), question.DifficultyEasy, nil, 5, nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
	store.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuestionRepository_Save(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store, BankOptions{})
	results := &fakeBatchResults{}

	var sent *pgx.Batch
	store.On("SendBatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).(*pgx.Batch)
	}).Return(results)

	qs := []question.Question{sampleQuestion("IPsec"), sampleQuestion("TLS")}
	require.NoError(t, repo.Save(context.Background(), qs))

	require.NotNil(t, sent)
	require.Equal(t, 2, sent.Len())
	assert.Equal(t, insertQuestionSQL, sent.QueuedQueries[0].SQL)
	assert.Contains(t, sent.QueuedQueries[0].SQL, "ON CONFLICT (id) DO NOTHING")
	assert.Equal(t, qs[1].ID, sent.QueuedQueries[1].Arguments[0])
	assert.Equal(t, 2, results.calls)
	assert.True(t, results.closed)

	require.NoError(t, repo.Save(context.Background(), nil))
	store.AssertNumberOfCalls(t, "SendBatch", 1)
}

func TestQuestionRepository_IncrementServedReportsFailure(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store, BankOptions{})
	results := &fakeBatchResults{execErrs: []error{nil, errors.New("deadlock")}}
	store.On("SendBatch", mock.Anything, mock.Anything).Return(results)

	err := repo.IncrementServed(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch statement 1")
	assert.True(t, results.closed)
}

func TestQuestionRepository_RecordFeedback(t *testing.T) {
	t.Run("adjusts quality once enough answers exist", func(t *testing.T) {
		store := new(mockQuestionStore)
		repo := NewQuestionRepository(store, BankOptions{})

		store.On("QueryRow", mock.Anything, recordFeedbackSQL, []any{"q1", 1}).
			Return(fakeRow{values: []any{"Easy", 5, 1.0, 1.0}})
		store.On("Exec", mock.Anything, updateQualitySQL, mock.Anything).Return(pgconn.NewCommandTag("UPDATE 1"), nil)

		require.NoError(t, repo.RecordFeedback(context.Background(), "q1", true))

		store.AssertNumberOfCalls(t, "Exec", 1)
		args := store.Calls[1].Arguments.Get(2).([]any)
		assert.InDelta(t, 0.95, args[0].(float64), 1e-9)
		assert.Equal(t, "q1", args[1])
		assert.Equal(t, 1.0, args[2])
	})

	t.Run("lost compare-and-set re-reads and applies the step again", func(t *testing.T) {
		store := new(mockQuestionStore)
		repo := NewQuestionRepository(store, BankOptions{})

		store.On("QueryRow", mock.Anything, recordFeedbackSQL, []any{"q1", 1}).
			Return(fakeRow{values: []any{"Medium", 7, 1.0, 1.0}})
		// A concurrent event already moved the score to 0.95.
		store.On("QueryRow", mock.Anything, feedbackStatsSQL, []any{"q1"}).
			Return(fakeRow{values: []any{"Medium", 8, 1.0, 0.95}})
		store.On("Exec", mock.Anything, updateQualitySQL, mock.Anything).
			Return(pgconn.NewCommandTag("UPDATE 0"), nil).Once()
		store.On("Exec", mock.Anything, updateQualitySQL, mock.Anything).
			Return(pgconn.NewCommandTag("UPDATE 1"), nil).Once()

		require.NoError(t, repo.RecordFeedback(context.Background(), "q1", true))

		store.AssertNumberOfCalls(t, "Exec", 2)
		store.AssertNumberOfCalls(t, "QueryRow", 2)

		var execArgs [][]any
		for _, call := range store.Calls {
			if call.Method == "Exec" {
				execArgs = append(execArgs, call.Arguments.Get(2).([]any))
			}
		}
		require.Len(t, execArgs, 2)
		assert.InDelta(t, 0.95, execArgs[0][0].(float64), 1e-9)
		assert.Equal(t, 1.0, execArgs[0][2])
		assert.InDelta(t, 0.90, execArgs[1][0].(float64), 1e-9)
		assert.Equal(t, 0.95, execArgs[1][2])
	})

	t.Run("gives up after bounded contention", func(t *testing.T) {
		store := new(mockQuestionStore)
		repo := NewQuestionRepository(store, BankOptions{})

		store.On("QueryRow", mock.Anything, recordFeedbackSQL, mock.Anything).
			Return(fakeRow{values: []any{"Medium", 7, 1.0, 1.0}})
		store.On("QueryRow", mock.Anything, feedbackStatsSQL, mock.Anything).
			Return(fakeRow{values: []any{"Medium", 7, 1.0, 1.0}})
		store.On("Exec", mock.Anything, updateQualitySQL, mock.Anything).
			Return(pgconn.NewCommandTag("UPDATE 0"), nil)

		err := repo.RecordFeedback(context.Background(), "q1", true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "contended")
		store.AssertNumberOfCalls(t, "Exec", maxQualityAttempts)
	})

	t.Run("skips the score write when nothing changes", func(t *testing.T) {
		store := new(mockQuestionStore)
		repo := NewQuestionRepository(store, BankOptions{})

		store.On("QueryRow", mock.Anything, recordFeedbackSQL, []any{"q1", 0}).
			Return(fakeRow{values: []any{"Easy", 3, 0.0, 1.0}})

		require.NoError(t, repo.RecordFeedback(context.Background(), "q1", false))
		store.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown id", func(t *testing.T) {
		store := new(mockQuestionStore)
		repo := NewQuestionRepository(store, BankOptions{})

		store.On("QueryRow", mock.Anything, recordFeedbackSQL, mock.Anything).Return(fakeRow{err: pgx.ErrNoRows})

		err := repo.RecordFeedback(context.Background(), "missing", true)
		assert.ErrorIs(t, err, question.ErrQuestionNotFound)
	})
}
