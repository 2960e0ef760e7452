package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/constants"
	"github.com/joseph-ayodele/custody-tracker/internal/common"
)

// Invoker calls a Completer under the strict output schema and returns a validated result.
type Invoker struct {
	completer Completer
	schema    map[string]any
	validator *SchemaValidator
	timeout   time.Duration
	logger    *slog.Logger
}

var _ Extractor = (*Invoker)(nil)

type InvokerOption func(*Invoker)

// WithTimeout bounds each outbound call.
func WithTimeout(d time.Duration) InvokerOption {
	return func(i *Invoker) {
		if d > 0 {
			i.timeout = d
		}
	}
}

func NewInvoker(completer Completer, logger *slog.Logger, opts ...InvokerOption) (*Invoker, error) {
	if completer == nil {
		return nil, errors.New("invoker: completer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	schema := BuildExtractionJSONSchema()
	validator, err := CompileSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("invoker: %w", err)
	}
	inv := &Invoker{
		completer: completer,
		schema:    schema,
		validator: validator,
		timeout:   45 * time.Second,
		logger:    logger,
	}
	for _, o := range opts {
		o(inv)
	}
	return inv, nil
}

// Extract performs one bounded call. Upstream failures are *ExtractionError;
// a missing entry text is an input error and never reaches the provider.
func (i *Invoker) Extract(ctx context.Context, req ExtractionRequest) (*ExtractionResult, []byte, error) {
	if strings.TrimSpace(req.EventText) == "" {
		return nil, nil, common.InvalidInput("entry text is required")
	}
	if req.SystemPrompt == "" || req.UserPrompt == "" {
		return nil, nil, common.InvalidInput("extraction prompts are required")
	}

	rid := uuid.New().String()
	start := time.Now()
	i.logger.Info("llm.extract.start",
		"req_id", rid,
		"text_len", len(req.EventText),
		"evidence", len(req.EvidenceSummaries),
		"reference_date", req.ReferenceDate,
		"timeout_ms", i.timeout.Milliseconds(),
	)

	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	raw, err := i.completer.Complete(callCtx, CompletionRequest{
		System:     req.SystemPrompt,
		User:       req.UserPrompt,
		SchemaName: SchemaName,
		Schema:     i.schema,
	})
	if err != nil {
		ee := classifyCallError(callCtx, err)
		i.logger.Error("llm.extract.call_failed",
			"req_id", rid, "kind", ee.Kind, "status", ee.StatusCode, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, ee
	}

	repaired, changes, err := RepairExtractionJSON(raw, i.logger)
	if err != nil {
		i.logger.Error("llm.extract.not_json", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return nil, raw, schemaError(err)
	}

	// Validate strictly.
	if err := i.validator.Validate(repaired); err != nil {
		i.logger.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "repairs", len(changes),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, repaired, schemaError(err)
	}

	var out ExtractionResult
	dec := json.NewDecoder(bytes.NewReader(repaired))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		i.logger.Error("llm.extract.unmarshal_failed", "req_id", rid, "error", err)
		return nil, repaired, schemaError(fmt.Errorf("unmarshal result: %w", err))
	}
	if err := CheckSemantics(&out); err != nil {
		i.logger.Error("llm.extract.semantic_check_failed", "req_id", rid, "error", err)
		return nil, repaired, schemaError(err)
	}

	i.logger.Info("llm.extract.ok",
		"req_id", rid,
		"events", len(out.Events),
		"action_items", len(out.ActionItems),
		"confidence", out.Metadata.ExtractionConfidence,
		"ambiguities", len(out.Metadata.Ambiguities),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &out, repaired, nil
}

// CheckSemantics enforces the rules JSON Schema cannot express.
func CheckSemantics(r *ExtractionResult) error {
	for idx, ev := range r.Events {
		if ev.Timestamp == nil {
			if ev.TimePrecision != string(constants.PrecisionUnknown) {
				return fmt.Errorf("events[%d]: null timestamp requires precision unknown, got %q", idx, ev.TimePrecision)
			}
			continue
		}
		if _, err := time.Parse(time.RFC3339, *ev.Timestamp); err != nil {
			return fmt.Errorf("events[%d]: timestamp %q is not RFC3339 with offset", idx, *ev.Timestamp)
		}
	}
	for idx, a := range r.ActionItems {
		if a.Deadline == nil {
			continue
		}
		if _, err := time.Parse(time.DateOnly, *a.Deadline); err != nil {
			return fmt.Errorf("action_items[%d]: deadline %q is not a date", idx, *a.Deadline)
		}
	}
	return nil
}
