package oracle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/olehkravets/satzwerk/internal/models"
)

type assistantStore interface {
	Get(ctx context.Context, purpose models.AssistantPurpose) (*models.Assistant, error)
	Upsert(ctx context.Context, assistant *models.Assistant) error
}

type assistantCache interface {
	GetAssistantID(ctx context.Context, purpose models.AssistantPurpose) (string, error)
	SetAssistantID(ctx context.Context, purpose models.AssistantPurpose, id string) error
}

type assistantCreator interface {
	CreateAssistant(ctx context.Context, name, model, instructions string) (string, error)
}

// Resolver resolves assistant ids without a process-global singleton: local
// memo, then cache, then the persistent store, and only then a create call.
type Resolver struct {
	client assistantCreator
	store  assistantStore
	cache  assistantCache
	logger *zap.Logger

	model         string
	graderName    string
	generatorName string

	mu   sync.Mutex
	memo map[models.AssistantPurpose]string
}

// NewResolver wires the resolution chain. cache may be nil.
func NewResolver(client assistantCreator, store assistantStore, cache assistantCache, model, graderName, generatorName string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		client:        client,
		store:         store,
		cache:         cache,
		logger:        logger,
		model:         model,
		graderName:    graderName,
		generatorName: generatorName,
		memo:          make(map[models.AssistantPurpose]string),
	}
}

// Resolve returns the assistant id for a purpose, provisioning one when
// neither cache nor store knows it yet.
func (r *Resolver) Resolve(ctx context.Context, purpose models.AssistantPurpose) (string, error) {
	r.mu.Lock()
	if id, ok := r.memo[purpose]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	if r.cache != nil {
		if id, err := r.cache.GetAssistantID(ctx, purpose); err == nil && id != "" {
			r.remember(purpose, id)
			return id, nil
		}
	}

	record, err := r.store.Get(ctx, purpose)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("load assistant %s: %w", purpose, err)
	}
	if record != nil && record.AssistantID != "" {
		r.rememberEverywhere(ctx, purpose, record.AssistantID)
		return record.AssistantID, nil
	}

	name, instructions, err := r.profile(purpose)
	if err != nil {
		return "", err
	}
	id, err := r.client.CreateAssistant(ctx, name, r.model, instructions)
	if err != nil {
		return "", fmt.Errorf("provision assistant %s: %w", purpose, err)
	}
	if err := r.store.Upsert(ctx, &models.Assistant{
		Purpose:     purpose,
		AssistantID: id,
		Model:       r.model,
	}); err != nil {
		// The assistant exists remotely; next resolution will re-read or
		// recreate, so only log here.
		r.logger.Warn("failed to persist assistant id", zap.String("purpose", string(purpose)), zap.Error(err))
	}
	r.rememberEverywhere(ctx, purpose, id)
	return id, nil
}

func (r *Resolver) profile(purpose models.AssistantPurpose) (name, instructions string, err error) {
	switch purpose {
	case models.AssistantGrader:
		return r.graderName, graderInstructions(), nil
	case models.AssistantGenerator:
		return r.generatorName, generatorInstructions(), nil
	default:
		return "", "", fmt.Errorf("unknown assistant purpose %q", purpose)
	}
}

func (r *Resolver) remember(purpose models.AssistantPurpose, id string) {
	r.mu.Lock()
	r.memo[purpose] = id
	r.mu.Unlock()
}

func (r *Resolver) rememberEverywhere(ctx context.Context, purpose models.AssistantPurpose, id string) {
	r.remember(purpose, id)
	if r.cache == nil {
		return
	}
	if err := r.cache.SetAssistantID(ctx, purpose, id); err != nil {
		r.logger.Debug("failed to cache assistant id", zap.String("purpose", string(purpose)), zap.Error(err))
	}
}
