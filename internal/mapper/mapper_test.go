package mapper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/custody-tracker/constants"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
	"github.com/joseph-ayodele/custody-tracker/internal/llm"
)

func TestLegacyToNew_TotalAndDeterministic(t *testing.T) {
	valid := map[constants.EventType]bool{}
	for _, s := range constants.EventTypeStrings() {
		valid[constants.EventType(s)] = true
	}

	for _, legacy := range constants.LegacyEventTypes() {
		first := LegacyToNew(legacy)
		require.True(t, valid[first], "legacy %q mapped to unknown %q", legacy, first)
		for i := 0; i < 10; i++ {
			require.Equal(t, first, LegacyToNew(legacy), "mapping for %q must be stable", legacy)
		}
	}
}

func TestLegacyToNew_DocumentedDefaults(t *testing.T) {
	cases := map[constants.LegacyEventType]constants.EventType{
		constants.LegacyPositive:      constants.ParentingTime,
		constants.LegacyNeutral:       constants.Caregiving,
		constants.LegacyNegative:      constants.CoparentConflict,
		constants.LegacyIncident:      constants.CoparentConflict,
		constants.LegacyMissedVisit:   constants.Gatekeeping,
		constants.LegacySafetyConcern: constants.Safety,
		constants.LegacyMedical:       constants.Medical,
		constants.LegacySchool:        constants.School,
		constants.LegacyCommunication: constants.Communication,
		constants.LegacyLegal:         constants.Legal,
	}
	require.Len(t, cases, len(constants.LegacyEventTypes()))
	for in, want := range cases {
		assert.Equal(t, want, LegacyToNew(in), "legacy %q", in)
	}
	assert.Equal(t, constants.OtherEvent, LegacyToNew("bogus"))
}

func TestNewToLegacy_RoundTrip(t *testing.T) {
	for _, s := range constants.EventTypeStrings() {
		typ := constants.EventType(s)
		if typ == constants.OtherEvent {
			assert.Equal(t, constants.LegacyNeutral, NewToLegacy(typ))
			continue
		}
		assert.Equal(t, typ, LegacyToNew(NewToLegacy(typ)), "round trip for %q", typ)
	}
}

func TestFromLegacyRow_UpgradesWithoutTouchingLegacyFields(t *testing.T) {
	row := entity.Event{
		ID:              uuid.New(),
		LegacyType:      constants.LegacyIncident,
		LegacyRelevance: entity.LegacyRelevance{ViolatesAgreement: true, SafetyConcern: true, WelfareImpact: "negative"},
	}
	got := FromLegacyRow(row)

	assert.Equal(t, constants.CoparentConflict, got.Type)
	assert.Equal(t, 1, got.SchemaVersion)
	assert.True(t, got.Relevance.SafetyConcern)
	require.NotNil(t, got.Relevance.AgreementViolation)
	assert.True(t, *got.Relevance.AgreementViolation)
	assert.Nil(t, got.Relevance.WelfareImpact)
	assert.Equal(t, constants.PrecisionUnknown, got.TimePrecision)
	assert.Equal(t, row.LegacyType, got.LegacyType)
	assert.Equal(t, row.LegacyRelevance, got.LegacyRelevance)
	assert.Empty(t, row.Type, "input row must not be modified")

	v2 := entity.Event{Type: constants.Medical, LegacyType: constants.LegacyMedical, SchemaVersion: 2}
	assert.Equal(t, v2, FromLegacyRow(v2))
}

func TestToRecords_DualWrite(t *testing.T) {
	yes := true
	ts := "2026-01-29T18:00:00-05:00"
	deadline := "2026-02-03"
	res := &llm.ExtractionResult{
		Events: []llm.ExtractedEvent{{
			Type:          "coparent_conflict",
			Title:         " Late pickup ",
			Description:   "Arrived 2.5 hours late",
			Timestamp:     &ts,
			TimePrecision: "exact",
			ChildInvolved: true,
			CustodyRelevance: entity.CustodyRelevance{
				AgreementViolation: &yes,
				SafetyConcern:      false,
				WelfareImpact:      &entity.WelfareImpact{Category: "emotional", Direction: "negative", Severity: "medium"},
			},
		}},
		ActionItems: []llm.ExtractedActionItem{{Priority: "high", Type: "document", Description: "Save texts", Deadline: &deadline}},
	}
	job := entity.ExtractionJob{ID: uuid.New(), UserID: uuid.New(), JournalEntryID: uuid.New()}

	var n int
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	fixed := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	m := New(WithIDGenerator(func() uuid.UUID { n++; return ids[n-1] }), WithClock(func() time.Time { return fixed }))

	events, items, err := m.ToRecords(job, res)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, items, 1)

	ev := events[0]
	assert.Equal(t, ids[0], ev.ID)
	assert.Equal(t, job.ID, *ev.JobID)
	assert.Equal(t, job.JournalEntryID, ev.JournalEntryID)
	assert.Equal(t, "Late pickup", ev.Title)
	assert.Equal(t, constants.CoparentConflict, ev.Type)
	assert.Equal(t, constants.EventSchemaVersion, ev.SchemaVersion)
	assert.Equal(t, constants.LegacyNegative, ev.LegacyType)
	assert.Equal(t, entity.LegacyRelevance{ViolatesAgreement: true, WelfareImpact: "negative"}, ev.LegacyRelevance)
	require.NotNil(t, ev.Timestamp)
	_, offset := ev.Timestamp.Zone()
	assert.Equal(t, -5*3600, offset)
	assert.NotNil(t, ev.Participants)
	assert.NotNil(t, ev.ChildStatements)
	assert.Equal(t, fixed, ev.CreatedAt)

	assert.Equal(t, ids[1], items[0].ID)
	require.NotNil(t, items[0].Deadline)
	assert.Equal(t, "2026-02-03", items[0].Deadline.Format(time.DateOnly))
}

func TestToRecords_RejectsUnknownType(t *testing.T) {
	res := &llm.ExtractionResult{Events: []llm.ExtractedEvent{{Type: "birthday", Title: "t", Description: "d", TimePrecision: "unknown"}}}
	_, _, err := New().ToRecords(entity.ExtractionJob{ID: uuid.New()}, res)
	require.Error(t, err)
}
