package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/custody-tracker/internal/common"
)

const latePickupJSON = `{
  "events": [{
    "type": "coparent_conflict",
    "title": "Pickup 2.5 hours late",
    "description": "Other parent arrived at 8:30pm for a 6:00pm pickup; see Evidence [ev-1].",
    "timestamp": "2026-01-29T18:00:00-05:00",
    "time_precision": "exact",
    "duration_minutes": 150,
    "location": null,
    "participants": ["other parent", "child"],
    "child_involved": true,
    "custody_relevance": {
      "agreement_violation": true,
      "safety_concern": false,
      "welfare_impact": {"category": "emotional", "direction": "negative", "severity": "medium"}
    },
    "child_statements": [{"statement": "Is daddy coming?", "child": null, "context": null}],
    "coparent_interaction": {"tone": "tense", "summary": "No response to texts", "communication_method": "text"},
    "patterns": [{"type": "late_pickup", "frequency": "recurring"}]
  }],
  "action_items": [{"priority": "high", "type": "document", "description": "Save the text thread", "deadline": null}],
  "metadata": {"extraction_confidence": 0.86, "ambiguities": []}
}`

const emptyJSON = `{"events": [], "action_items": [], "metadata": {"extraction_confidence": 0.95, "ambiguities": []}}`

type scriptedCompleter struct {
	responses []string
	errs      []error
	delay     time.Duration
	calls     int
	last      CompletionRequest
}

func (s *scriptedCompleter) Complete(ctx context.Context, req CompletionRequest) ([]byte, error) {
	i := s.calls
	s.calls++
	s.last = req
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.responses) {
		return []byte(s.responses[i]), nil
	}
	return []byte(s.responses[len(s.responses)-1]), nil
}

func request(text string) ExtractionRequest {
	return ExtractionRequest{EventText: text, SystemPrompt: "sys", UserPrompt: "user: " + text}
}

func newInvoker(t *testing.T, c Completer, opts ...InvokerOption) *Invoker {
	t.Helper()
	inv, err := NewInvoker(c, nil, opts...)
	require.NoError(t, err)
	return inv
}

func TestInvoker_ValidResult(t *testing.T) {
	c := &scriptedCompleter{responses: []string{latePickupJSON}}
	inv := newInvoker(t, c)

	res, raw, err := inv.Extract(context.Background(), request("pickup was late"))
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.Equal(t, "coparent_conflict", ev.Type)
	assert.True(t, ev.ChildInvolved)
	assert.False(t, ev.CustodyRelevance.SafetyConcern)
	require.NotNil(t, ev.CustodyRelevance.AgreementViolation)
	assert.True(t, *ev.CustodyRelevance.AgreementViolation)
	require.Len(t, res.ActionItems, 1)
	assert.InDelta(t, 0.86, res.Metadata.ExtractionConfidence, 1e-9)

	assert.Equal(t, SchemaName, c.last.SchemaName)
	assert.NotNil(t, c.last.Schema)
}

func TestInvoker_ZeroEventsIsValid(t *testing.T) {
	inv := newInvoker(t, &scriptedCompleter{responses: []string{emptyJSON}})

	res, _, err := inv.Extract(context.Background(), request("Nothing unusual happened today"))
	require.NoError(t, err)
	assert.Empty(t, res.Events)
}

func TestInvoker_EmptyTextIsInputError(t *testing.T) {
	c := &scriptedCompleter{responses: []string{emptyJSON}}
	inv := newInvoker(t, c)

	_, _, err := inv.Extract(context.Background(), request("   "))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrExtractionFailed)
	assert.Equal(t, 0, c.calls, "provider must not be called")
}

func TestInvoker_FreeTextIsSchemaFailure(t *testing.T) {
	inv := newInvoker(t, &scriptedCompleter{responses: []string{"Sure! Here are the events: none."}})

	_, _, err := inv.Extract(context.Background(), request("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, KindSchema, ee.Kind)
}

func TestInvoker_SchemaViolationRejected(t *testing.T) {
	bad := `{"events": [{"type": "birthday_party", "title": "t", "description": "d"}], "action_items": [], "metadata": {"extraction_confidence": 2, "ambiguities": []}}`
	inv := newInvoker(t, &scriptedCompleter{responses: []string{bad}})

	_, _, err := inv.Extract(context.Background(), request("x"))
	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, KindSchema, ee.Kind)
}

func TestInvoker_RepairsFencesAndNulls(t *testing.T) {
	fenced := "```json\n" + `{
  "events": [{
    "type": "Parenting Time",
    "title": "Park visit",
    "description": "Took the kids to the park.",
    "timestamp": "",
    "time_precision": "DAY",
    "duration_minutes": null,
    "location": "",
    "participants": null,
    "child_involved": true,
    "custody_relevance": {"agreement_violation": null, "safety_concern": false, "welfare_impact": null},
    "child_statements": [],
    "coparent_interaction": null,
    "patterns": [],
    "mood": "happy"
  }],
  "action_items": null,
  "metadata": {"extraction_confidence": 0.7, "ambiguities": null}
}` + "\n```"
	inv := newInvoker(t, &scriptedCompleter{responses: []string{fenced}})

	res, _, err := inv.Extract(context.Background(), request("park"))
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, "parenting_time", ev.Type)
	assert.Nil(t, ev.Timestamp)
	assert.Equal(t, "unknown", ev.TimePrecision)
	assert.Nil(t, ev.Location)
	assert.Empty(t, ev.Participants)
	assert.Empty(t, res.ActionItems)
}

func TestInvoker_BadTimestampRejected(t *testing.T) {
	bad := `{"events": [{"type": "medical", "title": "t", "description": "d", "timestamp": "yesterday 7pm",
	  "time_precision": "exact", "duration_minutes": null, "location": null, "participants": [], "child_involved": false,
	  "custody_relevance": {"agreement_violation": null, "safety_concern": false, "welfare_impact": null},
	  "child_statements": [], "coparent_interaction": null, "patterns": []}],
	  "action_items": [], "metadata": {"extraction_confidence": 0.5, "ambiguities": []}}`
	inv := newInvoker(t, &scriptedCompleter{responses: []string{bad}})

	_, _, err := inv.Extract(context.Background(), request("x"))
	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, KindSchema, ee.Kind)
}

func TestInvoker_TimeoutIsRetryableExtractionError(t *testing.T) {
	c := &scriptedCompleter{responses: []string{emptyJSON}, delay: time.Second}
	inv := newInvoker(t, c, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, _, err := inv.Extract(context.Background(), request("x"))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, KindTimeout, ee.Kind)
	assert.True(t, IsRetryable(err))
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestInvoker_StatusErrors(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{status: 503, retryable: true},
		{status: 429, retryable: true},
		{status: 401, retryable: false},
	}
	for _, tc := range cases {
		c := &scriptedCompleter{errs: []error{&StatusError{StatusCode: tc.status}}, responses: []string{emptyJSON}}
		inv := newInvoker(t, c)
		_, _, err := inv.Extract(context.Background(), request("x"))
		var ee *ExtractionError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, KindUnavailable, ee.Kind)
		assert.Equal(t, tc.status, ee.StatusCode)
		assert.Equal(t, tc.retryable, ee.Retryable(), "status %d", tc.status)
	}
}

func TestInvoker_TransportErrorIsUnavailable(t *testing.T) {
	c := &scriptedCompleter{errs: []error{errors.New("connection refused")}, responses: []string{emptyJSON}}
	inv := newInvoker(t, c)

	_, _, err := inv.Extract(context.Background(), request("x"))
	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, KindUnavailable, ee.Kind)
	assert.True(t, ee.Retryable())
}
