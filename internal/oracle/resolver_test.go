package oracle

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehkravets/satzwerk/internal/models"
)

type fakeStore struct {
	records map[models.AssistantPurpose]*models.Assistant
	upserts int
}

func (s *fakeStore) Get(ctx context.Context, purpose models.AssistantPurpose) (*models.Assistant, error) {
	if rec, ok := s.records[purpose]; ok {
		return rec, nil
	}
	return nil, sql.ErrNoRows
}

func (s *fakeStore) Upsert(ctx context.Context, assistant *models.Assistant) error {
	if s.records == nil {
		s.records = make(map[models.AssistantPurpose]*models.Assistant)
	}
	s.records[assistant.Purpose] = assistant
	s.upserts++
	return nil
}

type fakeCache struct {
	values map[models.AssistantPurpose]string
	sets   int
}

func (c *fakeCache) GetAssistantID(ctx context.Context, purpose models.AssistantPurpose) (string, error) {
	if id, ok := c.values[purpose]; ok {
		return id, nil
	}
	return "", errors.New("cache miss")
}

func (c *fakeCache) SetAssistantID(ctx context.Context, purpose models.AssistantPurpose, id string) error {
	if c.values == nil {
		c.values = make(map[models.AssistantPurpose]string)
	}
	c.values[purpose] = id
	c.sets++
	return nil
}

type fakeCreator struct {
	created int
	id      string
	err     error
}

func (c *fakeCreator) CreateAssistant(ctx context.Context, name, model, instructions string) (string, error) {
	c.created++
	return c.id, c.err
}

func newTestResolver(creator *fakeCreator, store *fakeStore, cache *fakeCache) *Resolver {
	// Avoid wrapping a typed nil *fakeCache in the assistantCache interface,
	// which would defeat the resolver's nil check.
	var c assistantCache
	if cache != nil {
		c = cache
	}
	return NewResolver(creator, store, c, "gpt-4o", "grader", "generator", nil)
}

func TestResolvePrefersCache(t *testing.T) {
	creator := &fakeCreator{id: "asst_new"}
	store := &fakeStore{}
	cache := &fakeCache{values: map[models.AssistantPurpose]string{models.AssistantGrader: "asst_cached"}}

	id, err := newTestResolver(creator, store, cache).Resolve(context.Background(), models.AssistantGrader)

	require.NoError(t, err)
	assert.Equal(t, "asst_cached", id)
	assert.Zero(t, creator.created)
}

func TestResolveFallsBackToStore(t *testing.T) {
	creator := &fakeCreator{id: "asst_new"}
	store := &fakeStore{records: map[models.AssistantPurpose]*models.Assistant{
		models.AssistantGenerator: {Purpose: models.AssistantGenerator, AssistantID: "asst_db"},
	}}
	cache := &fakeCache{}

	resolver := newTestResolver(creator, store, cache)
	id, err := resolver.Resolve(context.Background(), models.AssistantGenerator)

	require.NoError(t, err)
	assert.Equal(t, "asst_db", id)
	assert.Zero(t, creator.created)
	// Store hit is written through to the cache.
	assert.Equal(t, 1, cache.sets)
}

func TestResolveProvisionsWhenUnknown(t *testing.T) {
	creator := &fakeCreator{id: "asst_created"}
	store := &fakeStore{}
	cache := &fakeCache{}

	resolver := newTestResolver(creator, store, cache)
	id, err := resolver.Resolve(context.Background(), models.AssistantGrader)

	require.NoError(t, err)
	assert.Equal(t, "asst_created", id)
	assert.Equal(t, 1, creator.created)
	assert.Equal(t, 1, store.upserts)

	// Second resolution hits the local memo, no new calls.
	id2, err := resolver.Resolve(context.Background(), models.AssistantGrader)
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, 1, creator.created)
}

func TestResolveUnknownPurpose(t *testing.T) {
	resolver := newTestResolver(&fakeCreator{}, &fakeStore{}, nil)
	_, err := resolver.Resolve(context.Background(), models.AssistantPurpose("VOICE"))
	assert.Error(t, err)
}
