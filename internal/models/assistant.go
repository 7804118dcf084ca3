package models

import "time"

// AssistantPurpose distinguishes the configured oracle assistants.
type AssistantPurpose string

const (
	AssistantGrader    AssistantPurpose = "GRADER"
	AssistantGenerator AssistantPurpose = "GENERATOR"
)

// Assistant maps a purpose to the externally provisioned assistant id.
type Assistant struct {
	Purpose     AssistantPurpose `db:"purpose" json:"purpose"`
	AssistantID string           `db:"assistant_id" json:"assistant_id"`
	Model       string           `db:"model" json:"model"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}
