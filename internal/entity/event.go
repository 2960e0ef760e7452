package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/custody-tracker/constants"
)

// WelfareImpact describes an event's effect on a child's wellbeing.
type WelfareImpact struct {
	Category  string `json:"category"`
	Direction string `json:"direction"`
	Severity  string `json:"severity"`
}

// CustodyRelevance is the judgment block attached to an event (schema v2).
type CustodyRelevance struct {
	AgreementViolation *bool          `json:"agreement_violation"`
	SafetyConcern      bool           `json:"safety_concern"`
	WelfareImpact      *WelfareImpact `json:"welfare_impact"`
}

// LegacyRelevance is the schema v1 shape of custody_relevance, kept for older readers.
type LegacyRelevance struct {
	ViolatesAgreement bool   `json:"violates_agreement"`
	SafetyConcern     bool   `json:"safety_concern"`
	WelfareImpact     string `json:"welfare_impact"` // positive | negative | neutral
}

// ChildStatement is something a child said, quoted as reported.
type ChildStatement struct {
	Statement string  `json:"statement"`
	Child     *string `json:"child"`
	Context   *string `json:"context"`
}

// CoparentInteraction assesses an exchange with the other parent.
type CoparentInteraction struct {
	Tone                string  `json:"tone"`
	Summary             string  `json:"summary"`
	CommunicationMethod *string `json:"communication_method"`
}

// Pattern is a recurring behaviour noted by the model.
type Pattern struct {
	Type      string `json:"type"`
	Frequency string `json:"frequency"`
}

// Event is a persisted extracted event. Legacy* fields mirror the v1 columns.
type Event struct {
	ID             uuid.UUID  `json:"id"`
	JournalEntryID uuid.UUID  `json:"journal_entry_id"`
	JobID          *uuid.UUID `json:"job_id,omitempty"`
	UserID         uuid.UUID  `json:"user_id"`

	Title           string                  `json:"title"`
	Description     string                  `json:"description"`
	Timestamp       *time.Time              `json:"timestamp,omitempty"`
	TimePrecision   constants.TimePrecision `json:"time_precision"`
	DurationMinutes *int                    `json:"duration_minutes,omitempty"`
	Location        *string                 `json:"location,omitempty"`
	Participants    []string                `json:"participants"`
	ChildInvolved   bool                    `json:"child_involved"`

	LegacyType      constants.LegacyEventType `json:"event_type"`
	LegacyRelevance LegacyRelevance           `json:"legacy_custody_relevance"`

	Type                constants.EventType  `json:"type"`
	SchemaVersion       int                  `json:"schema_version"`
	Relevance           CustodyRelevance     `json:"custody_relevance"`
	ChildStatements     []ChildStatement     `json:"child_statements"`
	CoparentInteraction *CoparentInteraction `json:"coparent_interaction,omitempty"`
	Patterns            []Pattern            `json:"patterns"`

	CreatedAt time.Time `json:"created_at"`
}

// ActionItem is a follow-up task extracted alongside events.
type ActionItem struct {
	ID             uuid.UUID  `json:"id"`
	JournalEntryID uuid.UUID  `json:"journal_entry_id"`
	JobID          uuid.UUID  `json:"job_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Priority       string     `json:"priority"`
	Type           string     `json:"type"`
	Description    string     `json:"description"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
