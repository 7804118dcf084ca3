package models

import "time"

// TranslationAttempt is one graded submission. Rows are append-only and
// unique per (user, sentence, calendar day).
type TranslationAttempt struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	SentenceID  int64     `db:"sentence_id" json:"sentence_id"`
	SessionID   int64     `db:"session_id" json:"session_id"`
	Translation string    `db:"translation" json:"translation"`
	Score       int       `db:"score" json:"score"`
	Feedback    string    `db:"feedback" json:"feedback"`
	Corrected   string    `db:"corrected" json:"corrected"`
	AttemptedOn time.Time `db:"attempted_on" json:"attempted_on"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SubmitTranslationsRequest carries one or more translations for today's set.
type SubmitTranslationsRequest struct {
	Items []SubmissionItem `json:"items" validate:"required,min=1,dive"`
}

// SubmissionItem addresses a sentence by its per-day sequence number.
type SubmissionItem struct {
	Seq         int    `json:"seq" validate:"required,min=1"`
	Translation string `json:"translation" validate:"required"`
}

// SubmissionStatus is the synchronous admission verdict for one item.
type SubmissionStatus string

const (
	SubmissionQueued    SubmissionStatus = "QUEUED"
	SubmissionDuplicate SubmissionStatus = "DUPLICATE"
	SubmissionUnknown   SubmissionStatus = "UNKNOWN_SENTENCE"
)

// SubmissionReceipt reports per-item admission results.
type SubmissionReceipt struct {
	Seq    int              `json:"seq"`
	Status SubmissionStatus `json:"status"`
	Reason string           `json:"reason,omitempty"`
}

// GradedResult is the per-sentence outcome surfaced to the presentation layer.
type GradedResult struct {
	Seq                int       `db:"seq" json:"seq"`
	SentenceID         int64     `db:"sentence_id" json:"sentence_id"`
	Sentence           string    `db:"sentence" json:"sentence"`
	Translation        string    `db:"translation" json:"translation"`
	Score              int       `db:"score" json:"score"`
	Feedback           string    `db:"feedback" json:"feedback"`
	CorrectTranslation string    `db:"correct_translation" json:"correct_translation"`
	Mastered           bool      `db:"mastered" json:"mastered"`
	GradedAt           time.Time `db:"graded_at" json:"graded_at"`
}
