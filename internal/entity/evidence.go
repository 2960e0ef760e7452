package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/custody-tracker/constants"
)

// EvidenceItem is an artifact attached to a journal entry.
// Summary is populated by an external processor; only processed items feed extraction.
type EvidenceItem struct {
	ID             uuid.UUID                `json:"id"`
	JournalEntryID uuid.UUID                `json:"journal_entry_id"`
	SourceType     constants.EvidenceSource `json:"source_type"`
	StorageRef     string                   `json:"storage_ref"`
	Summary        *string                  `json:"summary,omitempty"`
	Tags           []string                 `json:"tags"`
	Annotation     *string                  `json:"annotation,omitempty"`
	Processed      bool                     `json:"processed"`
	SortOrder      int                      `json:"sort_order"`
	CreatedAt      time.Time                `json:"created_at"`
}

// Ready reports whether the item may be included in extraction context.
func (e EvidenceItem) Ready() bool {
	return e.Processed && e.Summary != nil && *e.Summary != ""
}
