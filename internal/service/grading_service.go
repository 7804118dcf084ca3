package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/olehkravets/satzwerk/internal/models"
	"github.com/olehkravets/satzwerk/internal/oracle"
	"github.com/olehkravets/satzwerk/internal/taxonomy"
	"github.com/olehkravets/satzwerk/pkg/config"
	appErrors "github.com/olehkravets/satzwerk/pkg/errors"
	"github.com/olehkravets/satzwerk/pkg/jobs"
)

// GradeJobType identifies grading tasks on the background queue.
const GradeJobType = "grade_translation"

type assignmentLookup interface {
	GetBySeq(ctx context.Context, userID int64, day time.Time, seq int) (*models.DailyAssignment, error)
}

type attemptGate interface {
	ExistsForDay(ctx context.Context, userID, sentenceID int64, day time.Time) (bool, error)
	ResultsForSession(ctx context.Context, userID, sessionID int64) ([]models.GradedResult, error)
}

type gradeLedger interface {
	ApplyGrade(ctx context.Context, sub models.GradedSubmission, recurringThreshold, firstTryThreshold int) (*models.LedgerOutcome, error)
}

type translationGrader interface {
	Grade(ctx context.Context, original, translation string) oracle.Evaluation
}

type gradeEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type openSessionFinder interface {
	FindOpenForDay(ctx context.Context, userID int64, day time.Time) (*models.PracticeSession, error)
}

// GradeTask is the queue payload for one translation to grade. Every task is
// graded independently; one slow or failed grade never holds up the others.
type GradeTask struct {
	UserID      int64
	SessionID   int64
	SentenceID  int64
	Seq         int
	Sentence    string
	Translation string
}

// GradingService admits translation submissions and grades them in the
// background. Admission rejects per item, never per batch: a duplicate in a
// batch does not block its siblings.
type GradingService struct {
	sessions    openSessionFinder
	assignments assignmentLookup
	attempts    attemptGate
	ledger      gradeLedger
	grader      translationGrader
	queue       gradeEnqueuer
	cfg         config.PracticeConfig
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradingService builds the service.
func NewGradingService(sessions openSessionFinder, assignments assignmentLookup, attempts attemptGate, ledger gradeLedger, grader translationGrader, queue gradeEnqueuer, cfg config.PracticeConfig, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GradingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{
		sessions:    sessions,
		assignments: assignments,
		attempts:    attempts,
		ledger:      ledger,
		grader:      grader,
		queue:       queue,
		cfg:         cfg,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Submit admits a batch of translations for today's open session. Each item
// gets its own receipt: queued for grading, rejected as a same-day duplicate,
// or rejected because the seq does not belong to today's set.
func (s *GradingService) Submit(ctx context.Context, userID int64, req models.SubmitTranslationsRequest) ([]models.SubmissionReceipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	now := time.Now()
	open, err := s.sessions.FindOpenForDay(ctx, userID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up open session")
	}
	if open == nil {
		return nil, appErrors.ErrNoOpenSession
	}

	receipts := make([]models.SubmissionReceipt, 0, len(req.Items))
	for _, item := range req.Items {
		receipts = append(receipts, s.admit(ctx, userID, open.ID, now, item))
	}
	return receipts, nil
}

func (s *GradingService) admit(ctx context.Context, userID, sessionID int64, now time.Time, item models.SubmissionItem) models.SubmissionReceipt {
	assignment, err := s.assignments.GetBySeq(ctx, userID, now, item.Seq)
	if err != nil {
		s.logger.Error("assignment lookup failed",
			zap.Int64("user_id", userID),
			zap.Int("seq", item.Seq),
			zap.Error(err))
		return models.SubmissionReceipt{Seq: item.Seq, Status: models.SubmissionUnknown, Reason: "lookup failed"}
	}
	if assignment == nil {
		return models.SubmissionReceipt{Seq: item.Seq, Status: models.SubmissionUnknown, Reason: "no such sentence in today's set"}
	}

	// Pre-check only: the unique index inside the ledger transaction stays
	// authoritative when two submissions race.
	exists, err := s.attempts.ExistsForDay(ctx, userID, assignment.SentenceID, now)
	if err != nil {
		s.logger.Error("attempt gate check failed",
			zap.Int64("user_id", userID),
			zap.Int64("sentence_id", assignment.SentenceID),
			zap.Error(err))
		return models.SubmissionReceipt{Seq: item.Seq, Status: models.SubmissionUnknown, Reason: "lookup failed"}
	}
	if exists {
		return models.SubmissionReceipt{Seq: item.Seq, Status: models.SubmissionDuplicate, Reason: "already graded today"}
	}

	task := GradeTask{
		UserID:      userID,
		SessionID:   sessionID,
		SentenceID:  assignment.SentenceID,
		Seq:         item.Seq,
		Sentence:    assignment.Text,
		Translation: item.Translation,
	}
	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: GradeJobType, Payload: task}); err != nil {
		s.logger.Error("failed to enqueue grading task",
			zap.Int64("user_id", userID),
			zap.Int("seq", item.Seq),
			zap.Error(err))
		return models.SubmissionReceipt{Seq: item.Seq, Status: models.SubmissionUnknown, Reason: "grading queue unavailable"}
	}
	return models.SubmissionReceipt{Seq: item.Seq, Status: models.SubmissionQueued}
}

// HandleGradeJob is the queue handler for one grading task: ask the oracle,
// map its labels onto the taxonomy and run the ledger transition. Returning
// an error requeues the job; a same-day duplicate is swallowed because a
// retry can never succeed.
func (s *GradingService) HandleGradeJob(ctx context.Context, job jobs.Job) error {
	task, ok := job.Payload.(GradeTask)
	if !ok {
		s.logger.Error("unexpected grade job payload", zap.String("job_id", job.ID))
		return nil
	}

	started := time.Now()
	eval := s.grader.Grade(ctx, task.Sentence, task.Translation)

	matched := taxonomy.MatchPairs(eval.Categories, eval.Subcategories)
	pairs := make([]models.CategoryPair, 0, len(matched))
	for _, p := range matched {
		pairs = append(pairs, models.CategoryPair{Main: p.Main, Sub: p.Sub})
	}

	outcome, err := s.ledger.ApplyGrade(ctx, models.GradedSubmission{
		UserID:      task.UserID,
		SentenceID:  task.SentenceID,
		Sentence:    task.Sentence,
		SessionID:   task.SessionID,
		Translation: task.Translation,
		Score:       eval.Score,
		Feedback:    eval.Report,
		Corrected:   eval.Corrected,
		Pairs:       pairs,
	}, s.cfg.MasteryRecurring, s.cfg.MasteryFirstTry)
	if err != nil {
		if errors.Is(err, appErrors.ErrDuplicateAttempt) {
			s.logger.Warn("dropping duplicate grading task",
				zap.Int64("user_id", task.UserID),
				zap.Int64("sentence_id", task.SentenceID))
			return nil
		}
		return err
	}

	// The grade changed the user's stats, so cached summaries are stale.
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("weekly:%d:*", task.UserID))

	s.metrics.ObserveGrade(outcome.State, time.Since(started))
	s.logger.Info("translation graded",
		zap.Int64("user_id", task.UserID),
		zap.Int64("sentence_id", task.SentenceID),
		zap.Int("score", eval.Score),
		zap.String("state", string(outcome.State)),
		zap.Int("attempt", outcome.AttemptNo))
	return nil
}

// Results returns the graded outcomes for today's open session so far.
func (s *GradingService) Results(ctx context.Context, userID int64) ([]models.GradedResult, error) {
	open, err := s.sessions.FindOpenForDay(ctx, userID, time.Now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up open session")
	}
	if open == nil {
		return nil, appErrors.ErrNoOpenSession
	}
	results, err := s.attempts.ResultsForSession(ctx, userID, open.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	return results, nil
}
