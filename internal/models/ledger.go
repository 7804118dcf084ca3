package models

import "time"

// LedgerState describes where a (user, sentence) pair sits in the mastery
// lifecycle. Mastered is terminal but re-enterable: a mastered sentence that
// resurfaces from the pool and fails again becomes Mistaken once more.
type LedgerState string

const (
	StateUnseen   LedgerState = "UNSEEN"
	StateMistaken LedgerState = "MISTAKEN"
	StateMastered LedgerState = "MASTERED"
)

// MistakeRecord is one ledger row per (user, sentence text, category pair).
type MistakeRecord struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	SentenceID   int64     `db:"sentence_id" json:"sentence_id"`
	Sentence     string    `db:"sentence" json:"sentence"`
	MainCategory string    `db:"main_category" json:"main_category"`
	SubCategory  string    `db:"sub_category" json:"sub_category"`
	MistakeCount int       `db:"mistake_count" json:"mistake_count"`
	Attempt      int       `db:"attempt" json:"attempt"`
	Score        int       `db:"score" json:"score"`
	Corrected    string    `db:"corrected" json:"corrected"`
	FirstSeen    time.Time `db:"first_seen" json:"first_seen"`
	LastSeen     time.Time `db:"last_seen" json:"last_seen"`
}

// AttemptCounter tracks re-attempts of a mistaken sentence until mastery.
type AttemptCounter struct {
	UserID     int64     `db:"user_id" json:"user_id"`
	SentenceID int64     `db:"sentence_id" json:"sentence_id"`
	Attempt    int       `db:"attempt" json:"attempt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// MasteryRecord is the append-only log of mastery events.
type MasteryRecord struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	SentenceID int64     `db:"sentence_id" json:"sentence_id"`
	Score      int       `db:"score" json:"score"`
	Attempt    int       `db:"attempt" json:"attempt"`
	MasteredOn time.Time `db:"mastered_on" json:"mastered_on"`
}

// CategoryPair is a validated (main, sub) taxonomy pair attached to a grade.
type CategoryPair struct {
	Main string `json:"main"`
	Sub  string `json:"sub"`
}

// GradedSubmission is the input to one ledger transition.
type GradedSubmission struct {
	UserID      int64
	SentenceID  int64
	Sentence    string
	SessionID   int64
	Translation string
	Score       int
	Feedback    string
	Corrected   string
	Pairs       []CategoryPair
}

// LedgerOutcome reports what a single graded attempt did to the ledger.
type LedgerOutcome struct {
	State        LedgerState `json:"state"`
	AttemptNo    int         `json:"attempt_no"`
	MistakeCount int         `json:"mistake_count,omitempty"`
}

// RecurringMistake is the set-builder view over the ledger: one row per
// distinct sentence, ordered by urgency.
type RecurringMistake struct {
	SentenceID   int64  `db:"sentence_id" json:"sentence_id"`
	Sentence     string `db:"sentence" json:"sentence"`
	MistakeCount int    `db:"mistake_count" json:"mistake_count"`
}
