package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/olehkravets/satzwerk/internal/models"
)

// SentenceRepository handles persistence for immutable practice sentences.
// A sentence's row id is its mistake identity: every assignment of the same
// text resolves to the same id.
type SentenceRepository struct {
	db *sqlx.DB
}

// NewSentenceRepository constructs the repository.
func NewSentenceRepository(db *sqlx.DB) *SentenceRepository {
	return &SentenceRepository{db: db}
}

// GetOrCreate resolves a text to its sentence row, inserting it on first
// sight. The no-op DO UPDATE keeps RETURNING populated on conflict.
func (r *SentenceRepository) GetOrCreate(ctx context.Context, text string, source models.SentenceSource, topic *string) (*models.Sentence, error) {
	query := `INSERT INTO sentences (text, source, topic)
VALUES ($1, $2, $3)
ON CONFLICT (text) DO UPDATE SET text = EXCLUDED.text
RETURNING id, text, source, topic, created_at`
	var stored models.Sentence
	if err := r.db.GetContext(ctx, &stored, query, text, source, topic); err != nil {
		return nil, fmt.Errorf("get or create sentence: %w", err)
	}
	return &stored, nil
}

// RandomFromPool draws n random curated sentences.
func (r *SentenceRepository) RandomFromPool(ctx context.Context, n int) ([]models.Sentence, error) {
	query := `SELECT id, text, source, topic, created_at
FROM sentences
WHERE source = $1
ORDER BY random()
LIMIT $2`
	var rows []models.Sentence
	if err := r.db.SelectContext(ctx, &rows, query, models.SourcePool, n); err != nil {
		return nil, fmt.Errorf("random pool sentences: %w", err)
	}
	return rows, nil
}

// RandomSpare samples n fallback sentences without replacement.
func (r *SentenceRepository) RandomSpare(ctx context.Context, n int) ([]models.Sentence, error) {
	query := `SELECT id, text, source, topic, created_at
FROM sentences
WHERE source = $1
ORDER BY random()
LIMIT $2`
	var rows []models.Sentence
	if err := r.db.SelectContext(ctx, &rows, query, models.SourceSpare, n); err != nil {
		return nil, fmt.Errorf("random spare sentences: %w", err)
	}
	return rows, nil
}

// Topics lists the configured practice topics.
func (r *SentenceRepository) Topics(ctx context.Context) ([]models.Topic, error) {
	query := `SELECT id, name FROM topics ORDER BY name`
	var rows []models.Topic
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return rows, nil
}
