package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"go.uber.org/zap"

	"github.com/olehkravets/satzwerk/internal/models"
	appErrors "github.com/olehkravets/satzwerk/pkg/errors"
)

type sessionRepository interface {
	Create(ctx context.Context, session *models.PracticeSession) error
	GetByID(ctx context.Context, id int64) (*models.PracticeSession, error)
	FindOpenForDay(ctx context.Context, userID int64, day time.Time) (*models.PracticeSession, error)
	Close(ctx context.Context, id int64, endedAt time.Time) (*models.PracticeSession, error)
	CloseStaleForUser(ctx context.Context, userID int64, before time.Time) (int64, error)
	FinalizeOpenBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type assignmentRepository interface {
	InsertSet(ctx context.Context, assignments []models.DailyAssignment) error
	ListForDay(ctx context.Context, userID int64, day time.Time) ([]models.DailyAssignment, error)
	CountForSession(ctx context.Context, sessionID int64) (int, error)
}

type sentenceStore interface {
	GetOrCreate(ctx context.Context, text string, source models.SentenceSource, topic *string) (*models.Sentence, error)
	Topics(ctx context.Context) ([]models.Topic, error)
}

type attemptCounter interface {
	CountForSession(ctx context.Context, sessionID int64) (int, error)
}

type dailySetBuilder interface {
	Build(ctx context.Context, userID int64, topic string) ([]SetItem, error)
}

// SessionService owns the practice session lifecycle: at most one open
// session per user per calendar day, force-closed at the latest by the
// end-of-day sweep.
type SessionService struct {
	sessions    sessionRepository
	assignments assignmentRepository
	sentences   sentenceStore
	attempts    attemptCounter
	builder     dailySetBuilder
	logger      *zap.Logger
}

// NewSessionService builds the service.
func NewSessionService(sessions sessionRepository, assignments assignmentRepository, sentences sentenceStore, attempts attemptCounter, builder dailySetBuilder, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions:    sessions,
		assignments: assignments,
		sentences:   sentences,
		attempts:    attempts,
		builder:     builder,
		logger:      logger,
	}
}

// newSessionID derives a stable numeric id from the user and start instant,
// truncated to twelve digits so it stays readable in logs and URLs.
func newSessionID(userID int64, startedAt time.Time) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%d", userID, startedAt.UnixNano())
	return int64(h.Sum64() % 1_000_000_000_000)
}

// Start opens today's session and assembles its sentence set. Calling it
// again on the same day returns the already-open session unchanged; open
// sessions from earlier days are force-closed first.
func (s *SessionService) Start(ctx context.Context, userID int64, username, topic string) (*models.SessionResponse, error) {
	now := time.Now()

	closed, err := s.sessions.CloseStaleForUser(ctx, userID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close stale sessions")
	}
	if closed > 0 {
		s.logger.Info("closed stale practice sessions",
			zap.Int64("user_id", userID),
			zap.Int64("count", closed))
	}

	if open, err := s.sessions.FindOpenForDay(ctx, userID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up open session")
	} else if open != nil {
		assignments, err := s.assignments.ListForDay(ctx, userID, now)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load today's set")
		}
		return &models.SessionResponse{Session: *open, Sentences: assignments}, nil
	}

	items, err := s.builder.Build(ctx, userID, topic)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	session := &models.PracticeSession{
		ID:        newSessionID(userID, now),
		UserID:    userID,
		Username:  username,
		StartedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, appErrors.ErrSessionOpen) {
			// Lost a race with a concurrent start; serve the winner's session.
			open, ferr := s.sessions.FindOpenForDay(ctx, userID, now)
			if ferr != nil {
				return nil, appErrors.Wrap(ferr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up open session")
			}
			if open != nil {
				assignments, lerr := s.assignments.ListForDay(ctx, userID, now)
				if lerr != nil {
					return nil, appErrors.Wrap(lerr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load today's set")
				}
				return &models.SessionResponse{Session: *open, Sentences: assignments}, nil
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	assignments := make([]models.DailyAssignment, 0, len(items))
	for i, item := range items {
		sentenceID := item.SentenceID
		text := item.Text
		if sentenceID == 0 {
			stored, err := s.sentences.GetOrCreate(ctx, item.Text, item.Source, nil)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store sentence")
			}
			sentenceID = stored.ID
			text = stored.Text
		}
		assignments = append(assignments, models.DailyAssignment{
			UserID:     userID,
			SessionID:  session.ID,
			SentenceID: sentenceID,
			Seq:        i + 1,
			AssignedOn: now,
			Text:       text,
		})
	}
	if err := s.assignments.InsertSet(ctx, assignments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store daily set")
	}

	s.logger.Info("practice session started",
		zap.Int64("user_id", userID),
		zap.Int64("session_id", session.ID),
		zap.Int("sentences", len(assignments)))
	return &models.SessionResponse{Session: *session, Sentences: assignments}, nil
}

// Today returns the open session and its set, or ErrNoOpenSession.
func (s *SessionService) Today(ctx context.Context, userID int64) (*models.SessionResponse, error) {
	now := time.Now()
	open, err := s.sessions.FindOpenForDay(ctx, userID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up open session")
	}
	if open == nil {
		return nil, appErrors.ErrNoOpenSession
	}
	assignments, err := s.assignments.ListForDay(ctx, userID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load today's set")
	}
	return &models.SessionResponse{Session: *open, Sentences: assignments}, nil
}

// Complete closes today's open session and reports grading progress.
// Ungraded sentences simply stay ungraded; completion never blocks on them.
func (s *SessionService) Complete(ctx context.Context, userID int64) (*models.CompleteSessionResponse, error) {
	now := time.Now()
	open, err := s.sessions.FindOpenForDay(ctx, userID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up open session")
	}
	if open == nil {
		return nil, appErrors.ErrNoOpenSession
	}

	graded, err := s.attempts.CountForSession(ctx, open.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count graded attempts")
	}
	total, err := s.assignments.CountForSession(ctx, open.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assignments")
	}

	closed, err := s.sessions.Close(ctx, open.ID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSessionFinalized.Code, appErrors.ErrSessionFinalized.Status, "session already finalized")
	}

	s.logger.Info("practice session completed",
		zap.Int64("user_id", userID),
		zap.Int64("session_id", closed.ID),
		zap.Int("graded", graded),
		zap.Int("total", total))
	return &models.CompleteSessionResponse{Session: *closed, Graded: graded, Total: total}, nil
}

// Topics lists the configured practice topics.
func (s *SessionService) Topics(ctx context.Context) ([]models.Topic, error) {
	topics, err := s.sentences.Topics(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list topics")
	}
	return topics, nil
}

// FinalizeOpenBefore force-closes every session started before the cutoff
// day. Invoked by the scheduled end-of-day sweep.
func (s *SessionService) FinalizeOpenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	closed, err := s.sessions.FinalizeOpenBefore(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize sessions")
	}
	if closed > 0 {
		s.logger.Info("finalized open practice sessions", zap.Int64("count", closed))
	}
	return closed, nil
}
