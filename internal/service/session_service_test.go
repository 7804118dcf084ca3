package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehkravets/satzwerk/internal/models"
	appErrors "github.com/olehkravets/satzwerk/pkg/errors"
)

type stubSessions struct {
	open       *models.PracticeSession
	openLater  *models.PracticeSession
	findCalls  int
	created    *models.PracticeSession
	createErr  error
	closed     *models.PracticeSession
	closeErr   error
	staleCount int64
	finalized  int64
}

func (s *stubSessions) Create(_ context.Context, session *models.PracticeSession) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = session
	return nil
}

func (s *stubSessions) GetByID(_ context.Context, _ int64) (*models.PracticeSession, error) {
	return s.open, nil
}

func (s *stubSessions) FindOpenForDay(_ context.Context, _ int64, _ time.Time) (*models.PracticeSession, error) {
	s.findCalls++
	if s.findCalls > 1 && s.openLater != nil {
		return s.openLater, nil
	}
	return s.open, nil
}

func (s *stubSessions) Close(_ context.Context, id int64, endedAt time.Time) (*models.PracticeSession, error) {
	if s.closeErr != nil {
		return nil, s.closeErr
	}
	closed := *s.open
	closed.EndedAt = &endedAt
	closed.Completed = true
	s.closed = &closed
	return &closed, nil
}

func (s *stubSessions) CloseStaleForUser(_ context.Context, _ int64, _ time.Time) (int64, error) {
	return s.staleCount, nil
}

func (s *stubSessions) FinalizeOpenBefore(_ context.Context, _ time.Time) (int64, error) {
	return s.finalized, nil
}

type stubAssignments struct {
	inserted []models.DailyAssignment
	listed   []models.DailyAssignment
	count    int
}

func (s *stubAssignments) InsertSet(_ context.Context, assignments []models.DailyAssignment) error {
	s.inserted = assignments
	return nil
}

func (s *stubAssignments) ListForDay(_ context.Context, _ int64, _ time.Time) ([]models.DailyAssignment, error) {
	return s.listed, nil
}

func (s *stubAssignments) CountForSession(_ context.Context, _ int64) (int, error) {
	return s.count, nil
}

type stubSentenceStore struct {
	nextID  int64
	created []string
}

func (s *stubSentenceStore) GetOrCreate(_ context.Context, text string, source models.SentenceSource, _ *string) (*models.Sentence, error) {
	s.nextID++
	s.created = append(s.created, text)
	return &models.Sentence{ID: 100 + s.nextID, Text: text, Source: source}, nil
}

func (s *stubSentenceStore) Topics(_ context.Context) ([]models.Topic, error) {
	return []models.Topic{{ID: 1, Name: "Alltag"}}, nil
}

type stubAttemptCount struct{ count int }

func (s *stubAttemptCount) CountForSession(_ context.Context, _ int64) (int, error) {
	return s.count, nil
}

type stubBuilder struct {
	items []SetItem
	err   error
	calls int
}

func (s *stubBuilder) Build(_ context.Context, _ int64, _ string) ([]SetItem, error) {
	s.calls++
	return s.items, s.err
}

func sevenItems() []SetItem {
	return []SetItem{
		{SentenceID: 1, Text: "Сегодня холодно.", Source: models.SourcePool},
		{SentenceID: 10, Text: "Он часто опаздывает.", Source: models.SourcePool},
		{Text: "Я пью кофе по утрам.", Source: models.SourceGenerated},
		{Text: "Она читает газету.", Source: models.SourceGenerated},
		{Text: "Дети играют во дворе.", Source: models.SourceGenerated},
		{Text: "Поезд приходит в восемь.", Source: models.SourceGenerated},
		{Text: "Мы купили билеты.", Source: models.SourceGenerated},
	}
}

func TestStartCreatesSessionAndStoresSet(t *testing.T) {
	sessions := &stubSessions{}
	assignments := &stubAssignments{}
	sentences := &stubSentenceStore{}
	builder := &stubBuilder{items: sevenItems()}
	svc := NewSessionService(sessions, assignments, sentences, &stubAttemptCount{}, builder, nil)

	resp, err := svc.Start(context.Background(), 42, "anna", "Alltag")

	require.NoError(t, err)
	require.NotNil(t, sessions.created)
	assert.Equal(t, int64(42), sessions.created.UserID)
	assert.NotZero(t, sessions.created.ID)
	assert.Less(t, sessions.created.ID, int64(1_000_000_000_000))

	require.Len(t, assignments.inserted, 7)
	for i, a := range assignments.inserted {
		assert.Equal(t, i+1, a.Seq)
		assert.Equal(t, sessions.created.ID, a.SessionID)
		assert.NotZero(t, a.SentenceID)
	}
	// Only the five generated texts needed storing.
	assert.Len(t, sentences.created, 5)
	assert.Len(t, resp.Sentences, 7)
}

func TestStartReturnsExistingOpenSession(t *testing.T) {
	open := &models.PracticeSession{ID: 111, UserID: 42, Username: "anna", StartedAt: time.Now()}
	sessions := &stubSessions{open: open}
	assignments := &stubAssignments{listed: []models.DailyAssignment{{Seq: 1, SentenceID: 5}}}
	builder := &stubBuilder{}
	svc := NewSessionService(sessions, assignments, &stubSentenceStore{}, &stubAttemptCount{}, builder, nil)

	resp, err := svc.Start(context.Background(), 42, "anna", "")

	require.NoError(t, err)
	assert.Equal(t, int64(111), resp.Session.ID)
	assert.Zero(t, builder.calls)
	assert.Nil(t, sessions.created)
}

func TestStartReusesSessionAfterLosingCreateRace(t *testing.T) {
	// Another request slipped in between the open-session lookup and the
	// insert; the unique index rejects ours and we serve the winner's session.
	winner := &models.PracticeSession{ID: 222, UserID: 42, Username: "anna", StartedAt: time.Now()}
	sessions := &stubSessions{createErr: appErrors.ErrSessionOpen, openLater: winner}
	assignments := &stubAssignments{listed: []models.DailyAssignment{{Seq: 1, SentenceID: 5}}}
	builder := &stubBuilder{items: sevenItems()}
	svc := NewSessionService(sessions, assignments, &stubSentenceStore{}, &stubAttemptCount{}, builder, nil)

	resp, err := svc.Start(context.Background(), 42, "anna", "")

	require.NoError(t, err)
	assert.Equal(t, int64(222), resp.Session.ID)
	require.Len(t, resp.Sentences, 1)
	assert.Nil(t, sessions.created)
	assert.Nil(t, assignments.inserted)
}

func TestStartPropagatesPoolExhaustion(t *testing.T) {
	sessions := &stubSessions{}
	builder := &stubBuilder{err: appErrors.ErrPoolExhausted}
	svc := NewSessionService(sessions, &stubAssignments{}, &stubSentenceStore{}, &stubAttemptCount{}, builder, nil)

	_, err := svc.Start(context.Background(), 42, "anna", "")

	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPoolExhausted.Code, appErr.Code)
	assert.Nil(t, sessions.created)
}

func TestTodayWithoutOpenSession(t *testing.T) {
	svc := NewSessionService(&stubSessions{}, &stubAssignments{}, &stubSentenceStore{}, &stubAttemptCount{}, &stubBuilder{}, nil)

	_, err := svc.Today(context.Background(), 42)

	assert.ErrorIs(t, err, appErrors.ErrNoOpenSession)
}

func TestCompleteClosesSessionAndReportsProgress(t *testing.T) {
	open := &models.PracticeSession{ID: 111, UserID: 42, Username: "anna", StartedAt: time.Now()}
	sessions := &stubSessions{open: open}
	assignments := &stubAssignments{count: 7}
	attempts := &stubAttemptCount{count: 5}
	svc := NewSessionService(sessions, assignments, &stubSentenceStore{}, attempts, &stubBuilder{}, nil)

	resp, err := svc.Complete(context.Background(), 42)

	require.NoError(t, err)
	assert.True(t, resp.Session.Completed)
	assert.Equal(t, 5, resp.Graded)
	assert.Equal(t, 7, resp.Total)
}

func TestNewSessionIDIsStableAndBounded(t *testing.T) {
	at := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	first := newSessionID(42, at)
	second := newSessionID(42, at)
	other := newSessionID(43, at)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.GreaterOrEqual(t, first, int64(0))
	assert.Less(t, first, int64(1_000_000_000_000))
}
