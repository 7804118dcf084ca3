package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttemptMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExistsForDayTrueWhenAlreadyGraded(t *testing.T) {
	db, mock, cleanup := newAttemptMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(42), int64(7), day).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForDay(context.Background(), 42, 7, day)

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultsForSessionOrderedBySeq(t *testing.T) {
	db, mock, cleanup := newAttemptMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	gradedAt := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"seq", "sentence_id", "sentence", "translation", "score",
		"feedback", "correct_translation", "mastered", "graded_at",
	}).
		AddRow(1, int64(5), "Он работает в банке.", "Er arbeitet in einer Bank.", 92,
			"Score: 92/100", "Er arbeitet in einer Bank.", true, gradedAt).
		AddRow(2, int64(6), "Мы идём в кино.", "Wir gehen ins Kino.", 60,
			"Score: 60/100", "Wir gehen ins Kino.", false, gradedAt)
	mock.ExpectQuery("SELECT da.seq, ta.sentence_id").
		WithArgs(int64(42), int64(111)).
		WillReturnRows(rows)

	results, err := repo.ResultsForSession(context.Background(), 42, 111)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Seq)
	assert.True(t, results[0].Mastered)
	assert.Equal(t, 60, results[1].Score)
	assert.False(t, results[1].Mastered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountForSession(t *testing.T) {
	db, mock, cleanup := newAttemptMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM translation_attempts`).
		WithArgs(int64(111)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountForSession(context.Background(), 111)

	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
