package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/olehkravets/satzwerk/internal/models"
)

// StatsRepository aggregates learner progress for the reporting endpoints
// and the scheduled weekly summary. It only reads closed or already-written
// data and is safe to run concurrently with live submissions.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// UserStats returns a learner's overall and same-day aggregates.
func (r *StatsRepository) UserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	query := `SELECT
$1::bigint AS user_id,
COUNT(*) AS total_attempts,
COALESCE(AVG(score), 0) AS average_score,
COUNT(*) FILTER (WHERE attempted_on = CURRENT_DATE) AS attempts_today,
COALESCE(AVG(score) FILTER (WHERE attempted_on = CURRENT_DATE), 0) AS average_today,
(SELECT COUNT(DISTINCT sentence_id) FROM mistakes WHERE user_id = $1) AS open_mistakes,
(SELECT COUNT(*) FROM masteries WHERE user_id = $1) AS mastered_total,
(SELECT COUNT(*) FROM practice_sessions
	WHERE user_id = $1 AND started_at >= date_trunc('week', CURRENT_DATE)) AS sessions_this_week
FROM translation_attempts
WHERE user_id = $1`
	var stats models.UserStats
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return &stats, nil
}

// WeeklyActivity aggregates one learner's week of attempts and sessions.
func (r *StatsRepository) WeeklyActivity(ctx context.Context, userID int64, from, to time.Time) (*models.WeeklyActivity, error) {
	query := `SELECT
COALESCE((SELECT AVG(score) FROM translation_attempts
	WHERE user_id = $1 AND attempted_on BETWEEN $2::date AND $3::date), 0) AS average_score,
COALESCE((SELECT AVG(EXTRACT(EPOCH FROM (ended_at - started_at)) / 60.0)
	FROM practice_sessions
	WHERE user_id = $1 AND completed = TRUE AND ended_at IS NOT NULL
	AND started_at::date BETWEEN $2::date AND $3::date), 0) AS avg_session_minutes,
(SELECT COUNT(DISTINCT attempted_on) FROM translation_attempts
	WHERE user_id = $1 AND attempted_on BETWEEN $2::date AND $3::date) AS practiced_days,
(SELECT COUNT(*) FROM masteries
	WHERE user_id = $1 AND mastered_on::date BETWEEN $2::date AND $3::date) AS mastered_this_week`
	var activity models.WeeklyActivity
	if err := r.db.GetContext(ctx, &activity, query, userID, from, to); err != nil {
		return nil, fmt.Errorf("weekly activity: %w", err)
	}
	return &activity, nil
}

// TopCategories ranks the learner's mistake categories since a cutoff.
func (r *StatsRepository) TopCategories(ctx context.Context, userID int64, since time.Time, limit int) ([]models.CategoryShare, error) {
	query := `WITH recent AS (
	SELECT main_category, SUM(mistake_count) AS mistakes
	FROM mistakes
	WHERE user_id = $1 AND last_seen >= $2
	GROUP BY main_category
)
SELECT main_category, mistakes,
ROUND(mistakes * 100.0 / SUM(mistakes) OVER (), 1) AS share
FROM recent
ORDER BY mistakes DESC
LIMIT $3`
	var rows []models.CategoryShare
	if err := r.db.SelectContext(ctx, &rows, query, userID, since, limit); err != nil {
		return nil, fmt.Errorf("top categories: %w", err)
	}
	return rows, nil
}

// ActiveUserIDs lists users with any attempt in the window; feeds the
// scheduled weekly summary precompute.
func (r *StatsRepository) ActiveUserIDs(ctx context.Context, from, to time.Time) ([]int64, error) {
	query := `SELECT DISTINCT user_id FROM translation_attempts
WHERE attempted_on BETWEEN $1::date AND $2::date
ORDER BY user_id`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, from, to); err != nil {
		return nil, fmt.Errorf("active users: %w", err)
	}
	return ids, nil
}
