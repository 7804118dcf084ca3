package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/olehkravets/satzwerk/internal/models"
)

// AssignmentRepository persists the per-day sentence assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// InsertSet stores a full daily set atomically. Assignments are immutable
// once written; a conflicting insert means the day's set already exists.
func (r *AssignmentRepository) InsertSet(ctx context.Context, assignments []models.DailyAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment insert: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	query := `INSERT INTO daily_assignments (user_id, session_id, sentence_id, seq, assigned_on)
VALUES ($1, $2, $3, $4, $5)`
	for _, a := range assignments {
		if _, err := tx.ExecContext(ctx, query, a.UserID, a.SessionID, a.SentenceID, a.Seq, a.AssignedOn); err != nil {
			return fmt.Errorf("insert assignment seq %d: %w", a.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment insert: %w", err)
	}
	committed = true
	return nil
}

// ListForDay returns the user's assignments for a calendar day with sentence
// texts attached, ordered by seq.
func (r *AssignmentRepository) ListForDay(ctx context.Context, userID int64, day time.Time) ([]models.DailyAssignment, error) {
	query := `SELECT da.id, da.user_id, da.session_id, da.sentence_id, da.seq, da.assigned_on, s.text
FROM daily_assignments da
JOIN sentences s ON s.id = da.sentence_id
WHERE da.user_id = $1 AND da.assigned_on = $2::date
ORDER BY da.seq`
	var rows []models.DailyAssignment
	if err := r.db.SelectContext(ctx, &rows, query, userID, day); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return rows, nil
}

// GetBySeq resolves one assignment by its user-facing sequence number.
// Returns nil when no such assignment exists for the day.
func (r *AssignmentRepository) GetBySeq(ctx context.Context, userID int64, day time.Time, seq int) (*models.DailyAssignment, error) {
	query := `SELECT da.id, da.user_id, da.session_id, da.sentence_id, da.seq, da.assigned_on, s.text
FROM daily_assignments da
JOIN sentences s ON s.id = da.sentence_id
WHERE da.user_id = $1 AND da.assigned_on = $2::date AND da.seq = $3`
	var row models.DailyAssignment
	if err := r.db.GetContext(ctx, &row, query, userID, day, seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("assignment by seq: %w", err)
	}
	return &row, nil
}

// CountForSession returns how many sentences a session carries.
func (r *AssignmentRepository) CountForSession(ctx context.Context, sessionID int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM daily_assignments WHERE session_id = $1`, sessionID); err != nil {
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return count, nil
}
