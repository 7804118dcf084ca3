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

func newStatsMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestUserStatsAggregates(t *testing.T) {
	db, mock, cleanup := newStatsMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	rows := sqlmock.NewRows([]string{
		"user_id", "total_attempts", "average_score", "attempts_today",
		"average_today", "open_mistakes", "mastered_total", "sessions_this_week",
	}).AddRow(int64(42), 120, 74.5, 7, 81.0, 4, 23, 3)
	mock.ExpectQuery("SELECT").
		WithArgs(int64(42)).
		WillReturnRows(rows)

	stats, err := repo.UserStats(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, 120, stats.TotalAttempts)
	assert.Equal(t, 4, stats.OpenMistakes)
	assert.Equal(t, 23, stats.MasteredTotal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyActivityWindow(t *testing.T) {
	db, mock, cleanup := newStatsMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	from := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 6)
	rows := sqlmock.NewRows([]string{"average_score", "avg_session_minutes", "practiced_days", "mastered_this_week"}).
		AddRow(78.3, 22.5, 5, 6)
	mock.ExpectQuery("SELECT").
		WithArgs(int64(42), from, to).
		WillReturnRows(rows)

	activity, err := repo.WeeklyActivity(context.Background(), 42, from, to)

	require.NoError(t, err)
	assert.InDelta(t, 78.3, activity.AverageScore, 0.01)
	assert.Equal(t, 5, activity.PracticedDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopCategoriesRanked(t *testing.T) {
	db, mock, cleanup := newStatsMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"main_category", "mistakes", "share"}).
		AddRow("Cases", 12, 48.0).
		AddRow("Verbs", 8, 32.0).
		AddRow("Word Order", 5, 20.0)
	mock.ExpectQuery("WITH recent AS").
		WithArgs(int64(42), since, 3).
		WillReturnRows(rows)

	shares, err := repo.TopCategories(context.Background(), 42, since, 3)

	require.NoError(t, err)
	require.Len(t, shares, 3)
	assert.Equal(t, "Cases", shares[0].MainCategory)
	assert.InDelta(t, 48.0, shares[0].Share, 0.01)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveUserIDs(t *testing.T) {
	db, mock, cleanup := newStatsMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	from := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 6)
	rows := sqlmock.NewRows([]string{"user_id"}).AddRow(int64(7)).AddRow(int64(42))
	mock.ExpectQuery("SELECT DISTINCT user_id").
		WithArgs(from, to).
		WillReturnRows(rows)

	ids, err := repo.ActiveUserIDs(context.Background(), from, to)

	require.NoError(t, err)
	assert.Equal(t, []int64{7, 42}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
