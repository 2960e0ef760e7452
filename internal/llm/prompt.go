package llm

import (
	"strings"

	"github.com/joseph-ayodele/custody-tracker/constants"
)

var typeRubric = map[constants.EventType]string{
	constants.ParentingTime:    "scheduled or actual time a parent spends with the child, exchanges that went as planned",
	constants.Caregiving:       "routine care: meals, bedtime, hygiene, homework help, transport",
	constants.CoparentConflict: "late or missed exchanges, arguments, hostile messages, schedule disputes",
	constants.Gatekeeping:      "withholding the child, blocking contact, refusing agreed time",
	constants.Medical:          "appointments, illness, injuries, medication, therapy",
	constants.School:           "attendance, grades, teacher contact, school events",
	constants.Communication:    "messages or calls between parents or with the child that are not conflict",
	constants.Legal:            "court filings, hearings, attorney contact, order changes",
	constants.Safety:           "any risk to the child's physical or emotional safety",
	constants.OtherEvent:       "relevant facts that fit no other type",
}

// ExtractionPolicy is the fixed part of the system prompt.
func ExtractionPolicy() string {
	var rubric []string
	for _, t := range constants.EventTypeStrings() {
		rubric = append(rubric, t+" ("+typeRubric[constants.EventType(t)]+")")
	}
	parts := []string{
		"You extract structured, legally relevant events from a parent's custody journal entry.",
		"Return ONLY JSON that matches the provided JSON Schema.",
		"Event types: " + strings.Join(rubric, "; ") + ".",
		"Prefer under-extraction over fabrication. If the entry does not state a detail, use null or an empty list. Never invent names, times, places or quotes.",
		"An entry that describes nothing notable may produce zero events.",
		"Quote child statements verbatim and only when the entry reports them.",
		"custody_relevance.safety_concern must always be evaluated as true or false.",
		"Use evidence only as labelled. Cite evidence by its id in the description when it supports a fact.",
		"Action items are concrete follow-ups for the parent. Do not give legal advice.",
		"Set metadata.extraction_confidence between 0 and 1 and list anything ambiguous in metadata.ambiguities.",
	}
	return strings.Join(parts, "\n")
}
