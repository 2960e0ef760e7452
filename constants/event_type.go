package constants

import (
	"strings"
)

// EventSchemaVersion is written to events.schema_version for every new row.
const EventSchemaVersion = 2

// LegacyEventType is the first-generation event taxonomy still read by older clients.
type LegacyEventType string

const (
	LegacyPositive      LegacyEventType = "positive"
	LegacyNeutral       LegacyEventType = "neutral"
	LegacyNegative      LegacyEventType = "negative"
	LegacyIncident      LegacyEventType = "incident"
	LegacyMedical       LegacyEventType = "medical"
	LegacySchool        LegacyEventType = "school"
	LegacyCommunication LegacyEventType = "communication"
	LegacyLegal         LegacyEventType = "legal"
	LegacySafetyConcern LegacyEventType = "safety_concern"
	LegacyMissedVisit   LegacyEventType = "missed_visit"
)

var allLegacyEventTypes = []LegacyEventType{
	LegacyPositive,
	LegacyNeutral,
	LegacyNegative,
	LegacyIncident,
	LegacyMedical,
	LegacySchool,
	LegacyCommunication,
	LegacyLegal,
	LegacySafetyConcern,
	LegacyMissedVisit,
}

// LegacyEventTypes returns a copy of the legacy enumeration.
func LegacyEventTypes() []LegacyEventType {
	out := make([]LegacyEventType, len(allLegacyEventTypes))
	copy(out, allLegacyEventTypes)
	return out
}

// EventType is the versioned event taxonomy (schema version 2).
type EventType string

const (
	ParentingTime    EventType = "parenting_time"
	Caregiving       EventType = "caregiving"
	CoparentConflict EventType = "coparent_conflict"
	Gatekeeping      EventType = "gatekeeping"
	Medical          EventType = "medical"
	School           EventType = "school"
	Communication    EventType = "communication"
	Legal            EventType = "legal"
	Safety           EventType = "safety"
	OtherEvent       EventType = "other"
)

var allEventTypes = []EventType{
	ParentingTime,
	Caregiving,
	CoparentConflict,
	Gatekeeping,
	Medical,
	School,
	Communication,
	Legal,
	Safety,
	OtherEvent,
}

// EventTypeStrings returns the new taxonomy as strings, for JSON schema enums.
func EventTypeStrings() []string {
	result := make([]string, len(allEventTypes))
	for i, t := range allEventTypes {
		result[i] = string(t)
	}
	return result
}

// Canonicalize maps loose labels produced by a model onto the new taxonomy.
func Canonicalize(input string) (EventType, bool) {
	if input == "" {
		return OtherEvent, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	// synonyms map
	synonyms := map[string]EventType{
		"visitation":         ParentingTime,
		"parenting":          ParentingTime,
		"custody_time":       ParentingTime,
		"childcare":          Caregiving,
		"care":               Caregiving,
		"conflict":           CoparentConflict,
		"co_parent_conflict": CoparentConflict,
		"late_pickup":        CoparentConflict,
		"withholding":        Gatekeeping,
		"missed_visit":       Gatekeeping,
		"health":             Medical,
		"education":          School,
		"message":            Communication,
		"court":              Legal,
		"safety_concern":     Safety,
	}

	if t, ok := synonyms[normalized]; ok {
		return t, true
	}

	for _, t := range allEventTypes {
		if normalized == string(t) {
			return t, true
		}
	}

	return OtherEvent, false
}

// TimePrecision marks how precisely an event timestamp is known.
type TimePrecision string

const (
	PrecisionExact       TimePrecision = "exact"
	PrecisionDay         TimePrecision = "day"
	PrecisionApproximate TimePrecision = "approximate"
	PrecisionUnknown     TimePrecision = "unknown"
)

// TimePrecisionStrings lists the precision markers for the output schema.
func TimePrecisionStrings() []string {
	return []string{string(PrecisionExact), string(PrecisionDay), string(PrecisionApproximate), string(PrecisionUnknown)}
}

// Welfare impact enumerations.
var (
	WelfareCategories = []string{"emotional", "physical", "educational", "social", "routine", "none"}
	WelfareDirections = []string{"positive", "negative", "neutral"}
	WelfareSeverities = []string{"low", "medium", "high"}
)

// Action item enumerations.
var (
	ActionPriorities = []string{"low", "medium", "high", "urgent"}
	ActionTypes      = []string{"document", "contact_attorney", "follow_up", "gather_evidence", "court_filing", "other"}
)

// Co-parent interaction and pattern enumerations.
var (
	InteractionTones   = []string{"cooperative", "neutral", "tense", "hostile"}
	PatternFrequencies = []string{"first_time", "occasional", "recurring", "frequent"}
)
