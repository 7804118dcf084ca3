package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/olehkravets/satzwerk/internal/models"
)

// AssistantRepository persists the purpose → assistant id mapping.
type AssistantRepository struct {
	db *sqlx.DB
}

// NewAssistantRepository constructs the repository.
func NewAssistantRepository(db *sqlx.DB) *AssistantRepository {
	return &AssistantRepository{db: db}
}

// Get loads the stored assistant for a purpose. sql.ErrNoRows when unknown.
func (r *AssistantRepository) Get(ctx context.Context, purpose models.AssistantPurpose) (*models.Assistant, error) {
	query := `SELECT purpose, assistant_id, model, created_at FROM assistants WHERE purpose = $1`
	var assistant models.Assistant
	if err := r.db.GetContext(ctx, &assistant, query, purpose); err != nil {
		return nil, err
	}
	return &assistant, nil
}

// Upsert stores or replaces the assistant id for a purpose.
func (r *AssistantRepository) Upsert(ctx context.Context, assistant *models.Assistant) error {
	query := `INSERT INTO assistants (purpose, assistant_id, model, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (purpose)
DO UPDATE SET assistant_id = EXCLUDED.assistant_id, model = EXCLUDED.model`
	if _, err := r.db.ExecContext(ctx, query, assistant.Purpose, assistant.AssistantID, assistant.Model, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert assistant: %w", err)
	}
	return nil
}

// AssistantCache is the Redis read-through layer in front of the assistants
// table. A miss is never a correctness issue, only an extra lookup.
type AssistantCache struct {
	cache *CacheRepository
	ttl   time.Duration
}

// NewAssistantCache wraps the shared cache repository.
func NewAssistantCache(cache *CacheRepository, ttl time.Duration) *AssistantCache {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AssistantCache{cache: cache, ttl: ttl}
}

func assistantKey(purpose models.AssistantPurpose) string {
	return fmt.Sprintf("assistant:%s", purpose)
}

// GetAssistantID reads a cached assistant id.
func (c *AssistantCache) GetAssistantID(ctx context.Context, purpose models.AssistantPurpose) (string, error) {
	var id string
	if err := c.cache.Get(ctx, assistantKey(purpose), &id); err != nil {
		return "", err
	}
	return id, nil
}

// SetAssistantID caches an assistant id with the configured TTL.
func (c *AssistantCache) SetAssistantID(ctx context.Context, purpose models.AssistantPurpose, id string) error {
	return c.cache.Set(ctx, assistantKey(purpose), id, c.ttl)
}
