package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/custody-tracker/constants"
)

// ResultSummary is the counts block written with a completed job.
type ResultSummary struct {
	EventsCreated      int         `json:"events_created"`
	EvidenceProcessed  int         `json:"evidence_processed"`
	ActionItemsCreated int         `json:"action_items_created"`
	EventIDs           []uuid.UUID `json:"event_ids"`
}

// ExtractionJob is one attempt to turn a journal entry into events.
type ExtractionJob struct {
	ID             uuid.UUID           `json:"id"`
	UserID         uuid.UUID           `json:"user_id"`
	Type           string              `json:"type"`
	Status         constants.JobStatus `json:"status"`
	JournalEntryID uuid.UUID           `json:"journal_entry_id"`
	Attempt        int                 `json:"attempt"`
	StartedAt      *time.Time          `json:"started_at,omitempty"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
	ErrorMessage   *string             `json:"error_message,omitempty"`
	ResultSummary  *ResultSummary      `json:"result_summary,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
