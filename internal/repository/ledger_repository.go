package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/olehkravets/satzwerk/internal/models"
	"github.com/olehkravets/satzwerk/internal/taxonomy"
	appErrors "github.com/olehkravets/satzwerk/pkg/errors"
)

// LedgerRepository owns the mistake ledger state machine. All writes for one
// graded attempt (attempt log, counter, mistake rows, mastery) happen inside
// a single transaction: a crash mid-write never leaves a counter incremented
// without its logged attempt.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs the repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ApplyGrade runs one ledger transition for a graded submission.
//
// The attempt log insert doubles as the authoritative AttemptGate: its
// unique index on (user_id, sentence_id, attempted_on) makes a second
// same-day submission insert zero rows, which rolls the whole transaction
// back with ErrDuplicateAttempt and leaves every table untouched.
func (r *LedgerRepository) ApplyGrade(ctx context.Context, sub models.GradedSubmission, recurringThreshold, firstTryThreshold int) (*models.LedgerOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ledger transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	var attemptID int64
	insertAttempt := `INSERT INTO translation_attempts
(user_id, sentence_id, session_id, translation, score, feedback, corrected, attempted_on, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_DATE, $8)
ON CONFLICT (user_id, sentence_id, attempted_on) DO NOTHING
RETURNING id`
	err = tx.QueryRowxContext(ctx, insertAttempt,
		sub.UserID, sub.SentenceID, sub.SessionID, sub.Translation,
		sub.Score, sub.Feedback, sub.Corrected, now,
	).Scan(&attemptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrDuplicateAttempt
		}
		return nil, fmt.Errorf("log attempt: %w", err)
	}

	var openMistakes int
	if err := tx.GetContext(ctx, &openMistakes,
		`SELECT COUNT(*) FROM mistakes WHERE user_id = $1 AND sentence_id = $2`,
		sub.UserID, sub.SentenceID); err != nil {
		return nil, fmt.Errorf("count open mistakes: %w", err)
	}
	wasMistaken := openMistakes > 0

	var outcome models.LedgerOutcome
	switch {
	case wasMistaken && sub.Score >= recurringThreshold:
		outcome, err = r.promote(ctx, tx, sub, now)
	case !wasMistaken && sub.Score >= firstTryThreshold:
		outcome, err = r.masterFirstTry(ctx, tx, sub, now)
	default:
		outcome, err = r.recordMistake(ctx, tx, sub, now)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ledger transaction: %w", err)
	}
	committed = true
	return &outcome, nil
}

// promote moves a recurring sentence out of the ledger: one mastery row,
// then the mistake rows and counter disappear.
func (r *LedgerRepository) promote(ctx context.Context, tx *sqlx.Tx, sub models.GradedSubmission, now time.Time) (models.LedgerOutcome, error) {
	var counter int
	err := tx.GetContext(ctx, &counter,
		`SELECT attempt FROM attempt_counters WHERE user_id = $1 AND sentence_id = $2`,
		sub.UserID, sub.SentenceID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.LedgerOutcome{}, fmt.Errorf("read attempt counter: %w", err)
	}
	attemptNo := counter + 1

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO masteries (user_id, sentence_id, score, attempt, mastered_on) VALUES ($1, $2, $3, $4, $5)`,
		sub.UserID, sub.SentenceID, sub.Score, attemptNo, now); err != nil {
		return models.LedgerOutcome{}, fmt.Errorf("write mastery: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM mistakes WHERE user_id = $1 AND sentence_id = $2`,
		sub.UserID, sub.SentenceID); err != nil {
		return models.LedgerOutcome{}, fmt.Errorf("clear mistakes: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM attempt_counters WHERE user_id = $1 AND sentence_id = $2`,
		sub.UserID, sub.SentenceID); err != nil {
		return models.LedgerOutcome{}, fmt.Errorf("clear attempt counter: %w", err)
	}
	return models.LedgerOutcome{State: models.StateMastered, AttemptNo: attemptNo}, nil
}

// masterFirstTry records mastery for a sentence never seen in the ledger.
func (r *LedgerRepository) masterFirstTry(ctx context.Context, tx *sqlx.Tx, sub models.GradedSubmission, now time.Time) (models.LedgerOutcome, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO masteries (user_id, sentence_id, score, attempt, mastered_on) VALUES ($1, $2, $3, 1, $4)`,
		sub.UserID, sub.SentenceID, sub.Score, now); err != nil {
		return models.LedgerOutcome{}, fmt.Errorf("write first-try mastery: %w", err)
	}
	return models.LedgerOutcome{State: models.StateMastered, AttemptNo: 1}, nil
}

// recordMistake bumps the counter and upserts one ledger row per valid
// category pair; an unclassifiable grade lands on the sentinel pair.
func (r *LedgerRepository) recordMistake(ctx context.Context, tx *sqlx.Tx, sub models.GradedSubmission, now time.Time) (models.LedgerOutcome, error) {
	var attemptNo int
	err := tx.GetContext(ctx, &attemptNo,
		`INSERT INTO attempt_counters (user_id, sentence_id, attempt, updated_at)
VALUES ($1, $2, 1, $3)
ON CONFLICT (user_id, sentence_id)
DO UPDATE SET attempt = attempt_counters.attempt + 1, updated_at = EXCLUDED.updated_at
RETURNING attempt`,
		sub.UserID, sub.SentenceID, now)
	if err != nil {
		return models.LedgerOutcome{}, fmt.Errorf("bump attempt counter: %w", err)
	}

	pairs := sub.Pairs
	if len(pairs) == 0 {
		pairs = []models.CategoryPair{{Main: taxonomy.SentinelCategory, Sub: taxonomy.SentinelSubcategory}}
	}

	upsert := `INSERT INTO mistakes
(user_id, sentence_id, sentence, main_category, sub_category, mistake_count, attempt, score, corrected, first_seen, last_seen)
VALUES ($1, $2, $3, $4, $5, 1, 1, $6, $7, $8, $8)
ON CONFLICT (user_id, sentence, main_category, sub_category)
DO UPDATE SET mistake_count = mistakes.mistake_count + 1,
	attempt = mistakes.attempt + 1,
	score = EXCLUDED.score,
	corrected = EXCLUDED.corrected,
	last_seen = EXCLUDED.last_seen
RETURNING mistake_count`
	maxCount := 0
	for _, pair := range pairs {
		var count int
		if err := tx.GetContext(ctx, &count, upsert,
			sub.UserID, sub.SentenceID, sub.Sentence, pair.Main, pair.Sub,
			sub.Score, sub.Corrected, now); err != nil {
			return models.LedgerOutcome{}, fmt.Errorf("upsert mistake %s/%s: %w", pair.Main, pair.Sub, err)
		}
		if count > maxCount {
			maxCount = count
		}
	}
	return models.LedgerOutcome{State: models.StateMistaken, AttemptNo: attemptNo, MistakeCount: maxCount}, nil
}

// TopRecurring returns up to limit distinct mistake sentences, most frequent
// first and longest unaddressed first within equal counts. Feeds the daily
// set builder.
func (r *LedgerRepository) TopRecurring(ctx context.Context, userID int64, limit int) ([]models.RecurringMistake, error) {
	query := `SELECT sentence_id, sentence, MAX(mistake_count) AS mistake_count
FROM mistakes
WHERE user_id = $1
GROUP BY sentence_id, sentence
ORDER BY MAX(mistake_count) DESC, MIN(last_seen) ASC
LIMIT $2`
	var rows []models.RecurringMistake
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("top recurring mistakes: %w", err)
	}
	return rows, nil
}

// StateFor reports the ledger state of one (user, sentence) pair.
func (r *LedgerRepository) StateFor(ctx context.Context, userID, sentenceID int64) (models.LedgerState, error) {
	var open int
	if err := r.db.GetContext(ctx, &open,
		`SELECT COUNT(*) FROM mistakes WHERE user_id = $1 AND sentence_id = $2`,
		userID, sentenceID); err != nil {
		return "", fmt.Errorf("ledger state: %w", err)
	}
	if open > 0 {
		return models.StateMistaken, nil
	}
	var mastered bool
	if err := r.db.GetContext(ctx, &mastered,
		`SELECT EXISTS (SELECT 1 FROM masteries WHERE user_id = $1 AND sentence_id = $2)`,
		userID, sentenceID); err != nil {
		return "", fmt.Errorf("ledger state: %w", err)
	}
	if mastered {
		return models.StateMastered, nil
	}
	return models.StateUnseen, nil
}
