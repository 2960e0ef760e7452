package llm

import (
	"context"

	"github.com/joseph-ayodele/custody-tracker/internal/entity"
)

// EvidenceSummary is a processed evidence item as presented to the model.
type EvidenceSummary struct {
	EvidenceID string `json:"evidenceId"`
	Annotation string `json:"annotation,omitempty"`
	Summary    string `json:"summary"`
}

// ExtractionRequest is the Context Builder / Invoker boundary.
// SystemPrompt and UserPrompt are assembled by the context builder.
type ExtractionRequest struct {
	EventText         string            `json:"eventText"`
	ReferenceDate     string            `json:"referenceDate,omitempty"`
	EvidenceSummaries []EvidenceSummary `json:"evidenceSummaries,omitempty"`

	SystemPrompt string `json:"-"`
	UserPrompt   string `json:"-"`
}

// ExtractedEvent is one event as returned by the model (schema version 2).
type ExtractedEvent struct {
	Type                string                      `json:"type"`
	Title               string                      `json:"title"`
	Description         string                      `json:"description"`
	Timestamp           *string                     `json:"timestamp"`
	TimePrecision       string                      `json:"time_precision"`
	DurationMinutes     *int                        `json:"duration_minutes"`
	Location            *string                     `json:"location"`
	Participants        []string                    `json:"participants"`
	ChildInvolved       bool                        `json:"child_involved"`
	CustodyRelevance    entity.CustodyRelevance     `json:"custody_relevance"`
	ChildStatements     []entity.ChildStatement     `json:"child_statements"`
	CoparentInteraction *entity.CoparentInteraction `json:"coparent_interaction"`
	Patterns            []entity.Pattern            `json:"patterns"`
}

// ExtractedActionItem is a follow-up task returned by the model.
type ExtractedActionItem struct {
	Priority    string  `json:"priority"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Deadline    *string `json:"deadline"` // YYYY-MM-DD
}

// ExtractionMetadata carries the model's own assessment of the extraction.
type ExtractionMetadata struct {
	ExtractionConfidence float64  `json:"extraction_confidence"`
	Ambiguities          []string `json:"ambiguities"`
}

// ExtractionResult is the validated output of one extraction call.
type ExtractionResult struct {
	Events      []ExtractedEvent      `json:"events"`
	ActionItems []ExtractedActionItem `json:"action_items"`
	Metadata    ExtractionMetadata    `json:"metadata"`
}

// CompletionRequest is what a provider needs to produce one structured completion.
type CompletionRequest struct {
	System     string
	User       string
	SchemaName string
	Schema     map[string]any
}

// Completer is a generative service that returns raw JSON content.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) ([]byte, error)
}

// Extractor is the interface the pipeline depends on.
type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) (*ExtractionResult, []byte /*rawJSON*/, error)
}
