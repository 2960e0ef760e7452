package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/custody-tracker/constants"
)

// JournalEntry is the narrative unit a user submits for extraction.
type JournalEntry struct {
	ID              uuid.UUID             `json:"id"`
	UserID          uuid.UUID             `json:"user_id"`
	CaseID          *uuid.UUID            `json:"case_id,omitempty"`
	Text            string                `json:"text"`
	ReferenceDate   *string               `json:"reference_date,omitempty"`
	Status          constants.EntryStatus `json:"status"`
	RawExtraction   json.RawMessage       `json:"raw_extraction,omitempty"`
	ProcessingError *string               `json:"processing_error,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	ProcessedAt     *time.Time            `json:"processed_at,omitempty"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
}
