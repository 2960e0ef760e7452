package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/internal/llm"
)

var _ llm.Completer = (*Client)(nil)

// Complete implements llm.Completer using chat/completions with a strict json_schema response format.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.openai.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"schema", req.SchemaName,
		"user_len", len(req.User),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   req.SchemaName,
				"strict": true,
				"schema": req.Schema,
			},
		},
		"messages": []map[string]any{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("llm.openai.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.openai.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.openai.no_choices", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, errors.New("no choices in openai response")
	}
	choice := cc.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, fmt.Errorf("openai refused: %s", choice.Message.Refusal)
	}
	if choice.FinishReason == "length" {
		return nil, errors.New("openai response truncated (finish_reason=length)")
	}

	content := strings.TrimSpace(choice.Message.Content)
	c.log.Info("llm.openai.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return []byte(content), nil
}
