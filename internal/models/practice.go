package models

import "time"

// SentenceSource tells where a practice sentence came from.
type SentenceSource string

const (
	// SourcePool marks curated sentences served in daily rotation.
	SourcePool SentenceSource = "POOL"
	// SourceSpare marks fallback sentences used when generation fails.
	SourceSpare SentenceSource = "SPARE"
	// SourceGenerated marks sentences produced by the generation oracle.
	SourceGenerated SentenceSource = "GENERATED"
)

// Sentence is an immutable unit of practice text. Its ID doubles as the
// mistake identity: all assignments of the same text share one row here.
type Sentence struct {
	ID        int64          `db:"id" json:"id"`
	Text      string         `db:"text" json:"text"`
	Source    SentenceSource `db:"source" json:"source"`
	Topic     *string        `db:"topic" json:"topic,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// PracticeSession is one learner's practice window. At most one open session
// exists per user per calendar day.
type PracticeSession struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"user_id"`
	Username  string     `db:"username" json:"username"`
	StartedAt time.Time  `db:"started_at" json:"started_at"`
	EndedAt   *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	Completed bool       `db:"completed" json:"completed"`
}

// DailyAssignment binds one sentence to a user's session for a calendar date.
// Seq is the user-facing 1..N address within the day's set.
type DailyAssignment struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	SessionID  int64     `db:"session_id" json:"session_id"`
	SentenceID int64     `db:"sentence_id" json:"sentence_id"`
	Seq        int       `db:"seq" json:"seq"`
	AssignedOn time.Time `db:"assigned_on" json:"assigned_on"`
	Text       string    `db:"text" json:"text"`
}

// StartSessionRequest opens today's practice session.
type StartSessionRequest struct {
	Topic string `json:"topic"`
}

// SessionResponse returns the session and its daily set.
type SessionResponse struct {
	Session   PracticeSession   `json:"session"`
	Sentences []DailyAssignment `json:"sentences"`
}

// CompleteSessionResponse reports the closed session and grading progress.
type CompleteSessionResponse struct {
	Session PracticeSession `json:"session"`
	Graded  int             `json:"graded"`
	Total   int             `json:"total"`
}
