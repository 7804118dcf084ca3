package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/olehkravets/satzwerk/internal/models"
	appErrors "github.com/olehkravets/satzwerk/pkg/errors"
)

// SessionRepository handles practice session persistence.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new open session. The partial unique index on open
// sessions turns a concurrent start into a unique violation, reported as
// ErrSessionOpen so the caller can fall back to the existing session.
func (r *SessionRepository) Create(ctx context.Context, session *models.PracticeSession) error {
	query := `INSERT INTO practice_sessions (id, user_id, username, started_at, completed)
VALUES ($1, $2, $3, $4, FALSE)`
	if _, err := r.db.ExecContext(ctx, query, session.ID, session.UserID, session.Username, session.StartedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return appErrors.ErrSessionOpen
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetByID loads one session.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.PracticeSession, error) {
	query := `SELECT id, user_id, username, started_at, ended_at, completed
FROM practice_sessions WHERE id = $1`
	var session models.PracticeSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

// FindOpenForDay returns the user's open session started on the given
// calendar day, or nil when none exists.
func (r *SessionRepository) FindOpenForDay(ctx context.Context, userID int64, day time.Time) (*models.PracticeSession, error) {
	query := `SELECT id, user_id, username, started_at, ended_at, completed
FROM practice_sessions
WHERE user_id = $1 AND completed = FALSE AND started_at::date = $2::date
ORDER BY started_at DESC
LIMIT 1`
	var session models.PracticeSession
	if err := r.db.GetContext(ctx, &session, query, userID, day); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open session: %w", err)
	}
	return &session, nil
}

// Close marks a session completed. Closed sessions are immutable, so the
// update is guarded on completed = FALSE.
func (r *SessionRepository) Close(ctx context.Context, id int64, endedAt time.Time) (*models.PracticeSession, error) {
	query := `UPDATE practice_sessions
SET ended_at = $2, completed = TRUE
WHERE id = $1 AND completed = FALSE
RETURNING id, user_id, username, started_at, ended_at, completed`
	var session models.PracticeSession
	if err := r.db.GetContext(ctx, &session, query, id, endedAt); err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	return &session, nil
}

// CloseStaleForUser force-closes the user's open sessions started before the
// given day. Happens when a new day's session starts while yesterday's was
// never completed.
func (r *SessionRepository) CloseStaleForUser(ctx context.Context, userID int64, before time.Time) (int64, error) {
	query := `UPDATE practice_sessions
SET ended_at = started_at::date + INTERVAL '1 day' - INTERVAL '1 second', completed = TRUE
WHERE user_id = $1 AND completed = FALSE AND started_at::date < $2::date`
	res, err := r.db.ExecContext(ctx, query, userID, before)
	if err != nil {
		return 0, fmt.Errorf("close stale sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("close stale sessions: %w", err)
	}
	return affected, nil
}

// FinalizeOpenBefore is the end-of-day sweep: it closes every session still
// open whose start day lies before the cutoff, for all users.
func (r *SessionRepository) FinalizeOpenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE practice_sessions
SET ended_at = started_at::date + INTERVAL '1 day' - INTERVAL '1 second', completed = TRUE
WHERE completed = FALSE AND started_at::date < $1::date`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("finalize open sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("finalize open sessions: %w", err)
	}
	return affected, nil
}
