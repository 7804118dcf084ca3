package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/olehkravets/satzwerk/internal/models"
)

// AttemptRepository reads the append-only translation attempt log. Writes
// happen only inside the ledger transaction (see LedgerRepository).
type AttemptRepository struct {
	db *sqlx.DB
}

// NewAttemptRepository constructs the repository.
func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// ExistsForDay reports whether the user already has a graded attempt for the
// sentence on the given calendar day. This is the AttemptGate pre-check; the
// unique index on (user_id, sentence_id, attempted_on) stays authoritative.
func (r *AttemptRepository) ExistsForDay(ctx context.Context, userID, sentenceID int64, day time.Time) (bool, error) {
	query := `SELECT EXISTS (
SELECT 1 FROM translation_attempts
WHERE user_id = $1 AND sentence_id = $2 AND attempted_on = $3::date)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, sentenceID, day); err != nil {
		return false, fmt.Errorf("attempt exists: %w", err)
	}
	return exists, nil
}

// ResultsForSession returns graded outcomes for one session, joined with the
// day's seq numbers and the mastery verdicts.
func (r *AttemptRepository) ResultsForSession(ctx context.Context, userID, sessionID int64) ([]models.GradedResult, error) {
	query := `SELECT da.seq, ta.sentence_id, s.text AS sentence, ta.translation, ta.score,
ta.feedback, ta.corrected AS correct_translation,
EXISTS (
	SELECT 1 FROM masteries m
	WHERE m.user_id = ta.user_id AND m.sentence_id = ta.sentence_id
	AND m.mastered_on::date = ta.attempted_on
) AS mastered,
ta.created_at AS graded_at
FROM translation_attempts ta
JOIN sentences s ON s.id = ta.sentence_id
JOIN daily_assignments da ON da.session_id = ta.session_id AND da.sentence_id = ta.sentence_id
WHERE ta.user_id = $1 AND ta.session_id = $2
ORDER BY da.seq`
	var rows []models.GradedResult
	if err := r.db.SelectContext(ctx, &rows, query, userID, sessionID); err != nil {
		return nil, fmt.Errorf("session results: %w", err)
	}
	return rows, nil
}

// CountForSession returns how many attempts a session has accumulated.
func (r *AttemptRepository) CountForSession(ctx context.Context, sessionID int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM translation_attempts WHERE session_id = $1`, sessionID); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}
