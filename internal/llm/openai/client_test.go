package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/custody-tracker/internal/llm"
)

func TestClientComplete_SendsStrictSchemaAndReturnsContent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"events\":[]}  "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "m", Timeout: time.Second}, nil)
	out, err := c.Complete(context.Background(), llm.CompletionRequest{
		System:     "sys",
		User:       "usr",
		SchemaName: llm.SchemaName,
		Schema:     llm.BuildExtractionJSONSchema(),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"events":[]}`, string(out))

	rf, ok := got["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", rf["type"])
	js := rf["json_schema"].(map[string]any)
	assert.Equal(t, true, js["strict"])
	assert.Equal(t, llm.SchemaName, js["name"])

	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestClientComplete_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"overloaded"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.Complete(context.Background(), llm.CompletionRequest{System: "s", User: "u"})
	var se *llm.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestClientComplete_RefusalAndNoChoices(t *testing.T) {
	bodies := []string{
		`{"choices":[{"message":{"content":"","refusal":"cannot help"},"finish_reason":"stop"}]}`,
		`{"choices":[]}`,
		`{"choices":[{"message":{"content":"{"},"finish_reason":"length"}]}`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
		_, err := c.Complete(context.Background(), llm.CompletionRequest{System: "s", User: "u"})
		assert.Error(t, err, body)
		srv.Close()
	}
}

func TestClientComplete_InvokerTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)
	inv, err := llm.NewInvoker(c, nil, llm.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, _, err = inv.Extract(context.Background(), llm.ExtractionRequest{EventText: "x", SystemPrompt: "s", UserPrompt: "u"})
	var ee *llm.ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, llm.KindTimeout, ee.Kind)
}
