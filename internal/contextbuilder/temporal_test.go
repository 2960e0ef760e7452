package contextbuilder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/custody-tracker/constants"
)

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := ParseTimezone("-05:00")
	require.NoError(t, err)
	return loc
}

func TestResolvePhrase_YesterdayAtSeven(t *testing.T) {
	ref := time.Date(2026, 1, 30, 0, 0, 0, 0, eastern(t))

	got, prec, ok := ResolvePhrase("yesterday at 7pm", ref)
	require.True(t, ok)
	assert.Equal(t, "2026-01-29T19:00:00-05:00", got.Format(time.RFC3339))
	assert.Equal(t, constants.PrecisionExact, prec)
}

func TestResolvePhrase_Table(t *testing.T) {
	// 2026-01-30 is a Friday.
	ref := time.Date(2026, 1, 30, 10, 15, 0, 0, eastern(t))

	tests := []struct {
		phrase string
		want   string
		prec   constants.TimePrecision
	}{
		{"today", "2026-01-30T00:00:00-05:00", constants.PrecisionDay},
		{"Tomorrow", "2026-01-31T00:00:00-05:00", constants.PrecisionDay},
		{"3 days ago", "2026-01-27T00:00:00-05:00", constants.PrecisionDay},
		{"1 day ago", "2026-01-29T00:00:00-05:00", constants.PrecisionDay},
		{"last friday", "2026-01-23T00:00:00-05:00", constants.PrecisionDay},
		{"this friday", "2026-01-30T00:00:00-05:00", constants.PrecisionDay},
		{"next friday", "2026-02-06T00:00:00-05:00", constants.PrecisionDay},
		{"last tuesday", "2026-01-27T00:00:00-05:00", constants.PrecisionDay},
		{"this tuesday", "2026-01-27T00:00:00-05:00", constants.PrecisionDay},
		{"next monday", "2026-02-02T00:00:00-05:00", constants.PrecisionDay},
		{"this morning", "2026-01-30T09:00:00-05:00", constants.PrecisionApproximate},
		{"last night", "2026-01-29T21:00:00-05:00", constants.PrecisionApproximate},
		{"last night at 1am", "2026-01-30T01:00:00-05:00", constants.PrecisionExact},
		{"today at 18:30", "2026-01-30T18:30:00-05:00", constants.PrecisionExact},
		{"today at 12am", "2026-01-30T00:00:00-05:00", constants.PrecisionExact},
		{"last tuesday at 6:45 p.m.", "2026-01-27T18:45:00-05:00", constants.PrecisionExact},
		{"yesterday at 7 p.m.", "2026-01-29T19:00:00-05:00", constants.PrecisionExact},
		{"yesterday at 7 a.m.", "2026-01-29T07:00:00-05:00", constants.PrecisionExact},
		{"yesterday at 7 p.m", "2026-01-29T19:00:00-05:00", constants.PrecisionExact},
		{"yesterday at 7", "2026-01-29T00:00:00-05:00", constants.PrecisionDay},
		{"yesterday at 07:00", "2026-01-29T07:00:00-05:00", constants.PrecisionExact},
		{"this morning at 7", "2026-01-30T07:00:00-05:00", constants.PrecisionExact},
		{"tonight at 8", "2026-01-30T20:00:00-05:00", constants.PrecisionExact},
		{"last night at 11", "2026-01-29T23:00:00-05:00", constants.PrecisionExact},
	}
	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got, prec, ok := ResolvePhrase(tt.phrase, ref)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Format(time.RFC3339))
			assert.Equal(t, tt.prec, prec)
		})
	}
}

func TestResolvePhrase_Unknown(t *testing.T) {
	ref := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
	for _, p := range []string{"", "sometime last spring", "yesterday at 25pm", "the other day"} {
		_, _, ok := ResolvePhrase(p, ref)
		assert.False(t, ok, p)
	}
}

func TestParseTimezone(t *testing.T) {
	loc, err := ParseTimezone("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = ParseTimezone("+0530")
	require.NoError(t, err)
	_, off := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 5*3600+30*60, off)

	_, err = ParseTimezone("Not/AZone")
	require.Error(t, err)

	_, err = ParseTimezone("+15:00")
	require.Error(t, err)
}

func TestFindTemporalPhrases(t *testing.T) {
	ref := time.Date(2026, 1, 30, 0, 0, 0, 0, eastern(t))
	text := "Yesterday at 7pm she was late again. Like last Friday. Yesterday at 7pm was the third time."

	hints := FindTemporalPhrases(text, ref)
	require.Len(t, hints, 2)
	assert.Equal(t, "yesterday at 7pm", hints[0].Phrase)
	assert.Equal(t, "2026-01-29T19:00:00-05:00", hints[0].Resolved.Format(time.RFC3339))
	assert.Equal(t, "last friday", hints[1].Phrase)
	assert.Equal(t, constants.PrecisionDay, hints[1].Precision)
}

func TestFindTemporalPhrases_Meridiem(t *testing.T) {
	ref := time.Date(2026, 1, 30, 0, 0, 0, 0, eastern(t))

	tests := []struct {
		text   string
		phrase string
		want   string
		prec   constants.TimePrecision
	}{
		{"yesterday at 7 p.m. he was late", "yesterday at 7 p.m.", "2026-01-29T19:00:00-05:00", constants.PrecisionExact},
		{"He was late yesterday at 7 p.m.", "yesterday at 7 p.m.", "2026-01-29T19:00:00-05:00", constants.PrecisionExact},
		{"Dropoff was yesterday at 7 a.m., on time.", "yesterday at 7 a.m.", "2026-01-29T07:00:00-05:00", constants.PrecisionExact},
		{"Yesterday at 7PM, again.", "yesterday at 7pm", "2026-01-29T19:00:00-05:00", constants.PrecisionExact},
		{"yesterday at 7 amber called", "yesterday at 7", "2026-01-29T00:00:00-05:00", constants.PrecisionDay},
		{"He came yesterday at 7 and left.", "yesterday at 7", "2026-01-29T00:00:00-05:00", constants.PrecisionDay},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			hints := FindTemporalPhrases(tt.text, ref)
			require.Len(t, hints, 1)
			assert.Equal(t, tt.phrase, hints[0].Phrase)
			assert.Equal(t, tt.want, hints[0].Resolved.Format(time.RFC3339))
			assert.Equal(t, tt.prec, hints[0].Precision)
		})
	}
}

func TestFindTemporalPhrases_SkipsPartialWords(t *testing.T) {
	ref := time.Date(2026, 1, 30, 0, 0, 0, 0, eastern(t))
	assert.Empty(t, FindTemporalPhrases("todays schedule was fine", ref))
}
