package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehkravets/satzwerk/internal/models"
	"github.com/olehkravets/satzwerk/internal/oracle"
	appErrors "github.com/olehkravets/satzwerk/pkg/errors"
	"github.com/olehkravets/satzwerk/pkg/jobs"
)

type stubAssignmentLookup struct {
	bySeq map[int]*models.DailyAssignment
}

func (s *stubAssignmentLookup) GetBySeq(_ context.Context, _ int64, _ time.Time, seq int) (*models.DailyAssignment, error) {
	return s.bySeq[seq], nil
}

type stubAttemptGate struct {
	graded  map[int64]bool
	results []models.GradedResult
}

func (s *stubAttemptGate) ExistsForDay(_ context.Context, _ int64, sentenceID int64, _ time.Time) (bool, error) {
	return s.graded[sentenceID], nil
}

func (s *stubAttemptGate) ResultsForSession(_ context.Context, _ int64, _ int64) ([]models.GradedResult, error) {
	return s.results, nil
}

type stubGradeLedger struct {
	applied   []models.GradedSubmission
	outcome   *models.LedgerOutcome
	err       error
	recurring int
	firstTry  int
}

func (s *stubGradeLedger) ApplyGrade(_ context.Context, sub models.GradedSubmission, recurringThreshold, firstTryThreshold int) (*models.LedgerOutcome, error) {
	s.applied = append(s.applied, sub)
	s.recurring = recurringThreshold
	s.firstTry = firstTryThreshold
	if s.err != nil {
		return nil, s.err
	}
	if s.outcome != nil {
		return s.outcome, nil
	}
	return &models.LedgerOutcome{State: models.StateMastered, AttemptNo: 1}, nil
}

type stubGrader struct {
	eval oracle.Evaluation
}

func (s *stubGrader) Grade(_ context.Context, _, _ string) oracle.Evaluation {
	return s.eval
}

type stubQueue struct {
	jobs []jobs.Job
	err  error
}

func (s *stubQueue) Enqueue(job jobs.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func openSession() *stubSessions {
	return &stubSessions{open: &models.PracticeSession{ID: 111, UserID: 42, Username: "anna", StartedAt: time.Now()}}
}

func newGradingService(sessions *stubSessions, lookup *stubAssignmentLookup, gate *stubAttemptGate, ledger *stubGradeLedger, grader *stubGrader, queue *stubQueue) *GradingService {
	return NewGradingService(sessions, lookup, gate, ledger, grader, queue, practiceConfig(), nil, nil, nil, nil)
}

func TestSubmitAdmitsEachItemIndependently(t *testing.T) {
	lookup := &stubAssignmentLookup{bySeq: map[int]*models.DailyAssignment{
		1: {SentenceID: 5, Seq: 1, Text: "Сегодня холодно."},
		2: {SentenceID: 6, Seq: 2, Text: "Он работает в банке."},
	}}
	gate := &stubAttemptGate{graded: map[int64]bool{6: true}}
	queue := &stubQueue{}
	svc := newGradingService(openSession(), lookup, gate, &stubGradeLedger{}, &stubGrader{}, queue)

	receipts, err := svc.Submit(context.Background(), 42, models.SubmitTranslationsRequest{Items: []models.SubmissionItem{
		{Seq: 1, Translation: "Heute ist es kalt."},
		{Seq: 2, Translation: "Er arbeitet in einer Bank."},
		{Seq: 9, Translation: "So etwas gibt es nicht."},
	}})

	require.NoError(t, err)
	require.Len(t, receipts, 3)
	assert.Equal(t, models.SubmissionQueued, receipts[0].Status)
	assert.Equal(t, models.SubmissionDuplicate, receipts[1].Status)
	assert.Equal(t, models.SubmissionUnknown, receipts[2].Status)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, GradeJobType, queue.jobs[0].Type)
	task, ok := queue.jobs[0].Payload.(GradeTask)
	require.True(t, ok)
	assert.Equal(t, int64(5), task.SentenceID)
	assert.Equal(t, int64(111), task.SessionID)
	assert.Equal(t, "Heute ist es kalt.", task.Translation)
}

func TestSubmitWithoutOpenSession(t *testing.T) {
	svc := newGradingService(&stubSessions{}, &stubAssignmentLookup{}, &stubAttemptGate{}, &stubGradeLedger{}, &stubGrader{}, &stubQueue{})

	_, err := svc.Submit(context.Background(), 42, models.SubmitTranslationsRequest{Items: []models.SubmissionItem{
		{Seq: 1, Translation: "Heute ist es kalt."},
	}})

	assert.ErrorIs(t, err, appErrors.ErrNoOpenSession)
}

func TestSubmitRejectsEmptyBatch(t *testing.T) {
	svc := newGradingService(openSession(), &stubAssignmentLookup{}, &stubAttemptGate{}, &stubGradeLedger{}, &stubGrader{}, &stubQueue{})

	_, err := svc.Submit(context.Background(), 42, models.SubmitTranslationsRequest{})

	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestHandleGradeJobAppliesLedgerTransition(t *testing.T) {
	ledger := &stubGradeLedger{outcome: &models.LedgerOutcome{State: models.StateMistaken, AttemptNo: 2, MistakeCount: 3}}
	grader := &stubGrader{eval: oracle.Evaluation{
		Score:         60,
		Categories:    []string{"Verbs", "Nonsense"},
		Subcategories: []string{"Modal Verbs", "Whatever"},
		Corrected:     "Ich muss zum Arzt gehen.",
		Report:        "Score: 60/100",
		Graded:        true,
	}}
	svc := newGradingService(openSession(), &stubAssignmentLookup{}, &stubAttemptGate{}, ledger, grader, &stubQueue{})

	err := svc.HandleGradeJob(context.Background(), jobs.Job{ID: "j1", Type: GradeJobType, Payload: GradeTask{
		UserID:      42,
		SessionID:   111,
		SentenceID:  7,
		Sentence:    "Мне нужно к врачу.",
		Translation: "Ich muss zum Arzt.",
	}})

	require.NoError(t, err)
	require.Len(t, ledger.applied, 1)
	sub := ledger.applied[0]
	assert.Equal(t, 60, sub.Score)
	// The unknown label pair is dropped, only the taxonomy match survives.
	require.Len(t, sub.Pairs, 1)
	assert.Equal(t, "Verbs", sub.Pairs[0].Main)
	assert.Equal(t, "Modal Verbs", sub.Pairs[0].Sub)
	assert.Equal(t, 85, ledger.recurring)
	assert.Equal(t, 80, ledger.firstTry)
}

func TestHandleGradeJobInvalidatesWeeklyCache(t *testing.T) {
	repo := &memCacheRepo{}
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	require.NoError(t, cache.Set(context.Background(), "weekly:42:2026-08-24", models.WeeklySummary{WeeklyScore: 25}, 0))
	grader := &stubGrader{eval: oracle.Evaluation{Score: 90, Graded: true}}
	svc := NewGradingService(openSession(), &stubAssignmentLookup{}, &stubAttemptGate{}, &stubGradeLedger{}, grader, &stubQueue{}, practiceConfig(), cache, nil, nil, nil)

	err := svc.HandleGradeJob(context.Background(), jobs.Job{ID: "j1", Type: GradeJobType, Payload: GradeTask{
		UserID: 42, SessionID: 111, SentenceID: 7,
	}})

	require.NoError(t, err)
	assert.Empty(t, repo.entries)
}

func TestHandleGradeJobSwallowsDuplicates(t *testing.T) {
	ledger := &stubGradeLedger{err: appErrors.ErrDuplicateAttempt}
	svc := newGradingService(openSession(), &stubAssignmentLookup{}, &stubAttemptGate{}, ledger, &stubGrader{}, &stubQueue{})

	err := svc.HandleGradeJob(context.Background(), jobs.Job{ID: "j1", Type: GradeJobType, Payload: GradeTask{
		UserID: 42, SessionID: 111, SentenceID: 7,
	}})

	assert.NoError(t, err)
}

func TestHandleGradeJobReturnsRetryableErrors(t *testing.T) {
	ledger := &stubGradeLedger{err: errors.New("connection reset")}
	svc := newGradingService(openSession(), &stubAssignmentLookup{}, &stubAttemptGate{}, ledger, &stubGrader{}, &stubQueue{})

	err := svc.HandleGradeJob(context.Background(), jobs.Job{ID: "j1", Type: GradeJobType, Payload: GradeTask{
		UserID: 42, SessionID: 111, SentenceID: 7,
	}})

	assert.Error(t, err)
}

func TestResultsRequireOpenSession(t *testing.T) {
	svc := newGradingService(&stubSessions{}, &stubAssignmentLookup{}, &stubAttemptGate{}, &stubGradeLedger{}, &stubGrader{}, &stubQueue{})

	_, err := svc.Results(context.Background(), 42)

	assert.ErrorIs(t, err, appErrors.ErrNoOpenSession)
}

func TestResultsReturnGradedOutcomes(t *testing.T) {
	gate := &stubAttemptGate{results: []models.GradedResult{{Seq: 1, Score: 92, Mastered: true}}}
	svc := newGradingService(openSession(), &stubAssignmentLookup{}, gate, &stubGradeLedger{}, &stubGrader{}, &stubQueue{})

	results, err := svc.Results(context.Background(), 42)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Mastered)
}
