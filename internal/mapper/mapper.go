// Package mapper bridges the two event schema generations. The legacy/new type
// functions are pure and total; Mapper shapes extraction output into rows that carry
// both the v2 columns and the v1 columns older readers still depend on.
package mapper

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/constants"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
	"github.com/joseph-ayodele/custody-tracker/internal/llm"
)

// LegacyToNew maps every legacy type to exactly one v2 type.
// Values outside the legacy enumeration map to "other".
func LegacyToNew(t constants.LegacyEventType) constants.EventType {
	switch t {
	case constants.LegacyPositive:
		return constants.ParentingTime
	case constants.LegacyNeutral:
		return constants.Caregiving
	case constants.LegacyNegative, constants.LegacyIncident:
		return constants.CoparentConflict
	case constants.LegacyMissedVisit:
		return constants.Gatekeeping
	case constants.LegacySafetyConcern:
		return constants.Safety
	case constants.LegacyMedical:
		return constants.Medical
	case constants.LegacySchool:
		return constants.School
	case constants.LegacyCommunication:
		return constants.Communication
	case constants.LegacyLegal:
		return constants.Legal
	}
	return constants.OtherEvent
}

// NewToLegacy picks the legacy value written alongside a v2 type.
// "other" and unknown values fall back to "neutral".
func NewToLegacy(t constants.EventType) constants.LegacyEventType {
	switch t {
	case constants.ParentingTime:
		return constants.LegacyPositive
	case constants.Caregiving:
		return constants.LegacyNeutral
	case constants.CoparentConflict:
		return constants.LegacyNegative
	case constants.Gatekeeping:
		return constants.LegacyMissedVisit
	case constants.Safety:
		return constants.LegacySafetyConcern
	case constants.Medical:
		return constants.LegacyMedical
	case constants.School:
		return constants.LegacySchool
	case constants.Communication:
		return constants.LegacyCommunication
	case constants.Legal:
		return constants.LegacyLegal
	}
	return constants.LegacyNeutral
}

// LegacyRelevance flattens the v2 relevance block into the v1 shape.
func LegacyRelevance(r entity.CustodyRelevance) entity.LegacyRelevance {
	out := entity.LegacyRelevance{
		SafetyConcern: r.SafetyConcern,
		WelfareImpact: "neutral",
	}
	if r.AgreementViolation != nil {
		out.ViolatesAgreement = *r.AgreementViolation
	}
	if r.WelfareImpact != nil && r.WelfareImpact.Direction != "" {
		out.WelfareImpact = r.WelfareImpact.Direction
	}
	return out
}

// RelevanceFromLegacy lifts a v1 relevance block. The welfare triple stays nil
// because v1 never recorded category or severity.
func RelevanceFromLegacy(l entity.LegacyRelevance) entity.CustodyRelevance {
	violates := l.ViolatesAgreement
	return entity.CustodyRelevance{
		AgreementViolation: &violates,
		SafetyConcern:      l.SafetyConcern,
	}
}

// FromLegacyRow upgrades a legacy-only row for reading. The stored row is never rewritten.
func FromLegacyRow(e entity.Event) entity.Event {
	if e.Type != "" {
		return e
	}
	e.Type = LegacyToNew(e.LegacyType)
	e.Relevance = RelevanceFromLegacy(e.LegacyRelevance)
	if e.SchemaVersion == 0 {
		e.SchemaVersion = 1
	}
	if e.TimePrecision == "" {
		if e.Timestamp == nil {
			e.TimePrecision = constants.PrecisionUnknown
		} else {
			e.TimePrecision = constants.PrecisionDay
		}
	}
	if e.ChildStatements == nil {
		e.ChildStatements = []entity.ChildStatement{}
	}
	if e.Patterns == nil {
		e.Patterns = []entity.Pattern{}
	}
	return e
}

// Mapper turns a validated extraction result into rows for one job.
type Mapper struct {
	newID func() uuid.UUID
	now   func() time.Time
}

type Option func(*Mapper)

// WithIDGenerator replaces uuid.New, mostly for tests.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(m *Mapper) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(m *Mapper) {
		if fn != nil {
			m.now = fn
		}
	}
}

func New(opts ...Option) *Mapper {
	m := &Mapper{newID: uuid.New, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// ToRecords dual-writes every event: v2 columns from the result, v1 columns through NewToLegacy.
func (m *Mapper) ToRecords(job entity.ExtractionJob, res *llm.ExtractionResult) ([]entity.Event, []entity.ActionItem, error) {
	if res == nil {
		return nil, nil, fmt.Errorf("mapper: nil result")
	}
	now := m.now().UTC()
	jobID := job.ID

	events := make([]entity.Event, 0, len(res.Events))
	for i, ev := range res.Events {
		typ, ok := constants.Canonicalize(ev.Type)
		if !ok {
			return nil, nil, fmt.Errorf("mapper: events[%d]: unknown type %q", i, ev.Type)
		}
		var ts *time.Time
		if ev.Timestamp != nil {
			t, err := time.Parse(time.RFC3339, *ev.Timestamp)
			if err != nil {
				return nil, nil, fmt.Errorf("mapper: events[%d]: %w", i, err)
			}
			ts = &t
		}
		events = append(events, entity.Event{
			ID:                  m.newID(),
			JournalEntryID:      job.JournalEntryID,
			JobID:               &jobID,
			UserID:              job.UserID,
			Title:               strings.TrimSpace(ev.Title),
			Description:         strings.TrimSpace(ev.Description),
			Timestamp:           ts,
			TimePrecision:       constants.TimePrecision(ev.TimePrecision),
			DurationMinutes:     ev.DurationMinutes,
			Location:            ev.Location,
			Participants:        nonNil(ev.Participants),
			ChildInvolved:       ev.ChildInvolved,
			LegacyType:          NewToLegacy(typ),
			LegacyRelevance:     LegacyRelevance(ev.CustodyRelevance),
			Type:                typ,
			SchemaVersion:       constants.EventSchemaVersion,
			Relevance:           ev.CustodyRelevance,
			ChildStatements:     nonNil(ev.ChildStatements),
			CoparentInteraction: ev.CoparentInteraction,
			Patterns:            nonNil(ev.Patterns),
			CreatedAt:           now,
		})
	}

	items := make([]entity.ActionItem, 0, len(res.ActionItems))
	for i, a := range res.ActionItems {
		var deadline *time.Time
		if a.Deadline != nil {
			d, err := time.Parse(time.DateOnly, *a.Deadline)
			if err != nil {
				return nil, nil, fmt.Errorf("mapper: action_items[%d]: %w", i, err)
			}
			deadline = &d
		}
		items = append(items, entity.ActionItem{
			ID:             m.newID(),
			JournalEntryID: job.JournalEntryID,
			JobID:          jobID,
			UserID:         job.UserID,
			Priority:       a.Priority,
			Type:           a.Type,
			Description:    strings.TrimSpace(a.Description),
			Deadline:       deadline,
			CreatedAt:      now,
		})
	}
	return events, items, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
