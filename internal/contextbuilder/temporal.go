package contextbuilder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/custody-tracker/constants"
)

var (
	reOffset = regexp.MustCompile(`^([+-])(\d{2}):?(\d{2})$`)

	weekdays = map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
		"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	}

	dayPart = `today|yesterday|tomorrow|tonight|last night|this morning|this afternoon|this evening|` +
		`(?:last|this|next) (?:sunday|monday|tuesday|wednesday|thursday|friday|saturday)|` +
		`\d{1,2} days? ago`
	clockPart = `\s+at\s+(\d{1,2})(?::(\d{2}))?(?:\s*(am|pm|a\.m\.?|p\.m\.?))?`

	rePhrase = regexp.MustCompile(`^(` + dayPart + `)(?:` + clockPart + `)?$`)
	// No trailing \b: it cannot follow "p.m.". The word boundary is checked in code.
	reScan = regexp.MustCompile(`(?i)\b(` + dayPart + `)(?:` + clockPart + `)?`)
	// Anchored retry for a match that ends inside a word ("at 7 amber", "todays").
	reScanWord = regexp.MustCompile(`(?i)^(` + dayPart + `)(?:` + clockPart + `)?\b`)

	// Approximate hours for parts of the day.
	dayPartHours = map[string]int{
		"this morning":   9,
		"this afternoon": 15,
		"this evening":   19,
		"tonight":        20,
		"last night":     21,
	}
)

// ParseTimezone accepts an IANA zone name or a fixed offset (-05:00, +0530).
// Empty means UTC.
func ParseTimezone(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	switch strings.ToUpper(tz) {
	case "", "UTC", "Z":
		return time.UTC, nil
	}
	if m := reOffset.FindStringSubmatch(tz); m != nil {
		h, _ := strconv.Atoi(m[2])
		mins, _ := strconv.Atoi(m[3])
		if h > 14 || mins > 59 {
			return nil, fmt.Errorf("timezone offset %q out of range", tz)
		}
		secs := h*3600 + mins*60
		if m[1] == "-" {
			secs = -secs
		}
		return time.FixedZone(fmt.Sprintf("%s%s:%s", m[1], m[2], m[3]), secs), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	return loc, nil
}

// TemporalHint is a relative phrase found in the entry and its resolution.
type TemporalHint struct {
	Phrase    string
	Resolved  time.Time
	Precision constants.TimePrecision
}

// ResolvePhrase resolves a relative time phrase against ref, in ref's location.
// ok is false when the phrase is not understood.
func ResolvePhrase(phrase string, ref time.Time) (time.Time, constants.TimePrecision, bool) {
	p := strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
	m := rePhrase.FindStringSubmatch(p)
	if m == nil {
		return time.Time{}, "", false
	}
	return resolveMatch(m[1], m[2], m[3], m[4], ref)
}

func resolveMatch(day, hour, minute, meridiem string, ref time.Time) (time.Time, constants.TimePrecision, bool) {
	loc := ref.Location()
	y, mo, d := ref.Date()
	base := time.Date(y, mo, d, 0, 0, 0, 0, loc)
	day = strings.ToLower(day)

	approxHour := -1
	switch {
	case day == "today":
	case day == "yesterday":
		base = base.AddDate(0, 0, -1)
	case day == "tomorrow":
		base = base.AddDate(0, 0, 1)
	case day == "last night":
		base = base.AddDate(0, 0, -1)
		approxHour = dayPartHours[day]
	case dayPartHours[day] > 0:
		approxHour = dayPartHours[day]
	case strings.HasSuffix(day, " ago"):
		n, err := strconv.Atoi(strings.Fields(day)[0])
		if err != nil {
			return time.Time{}, "", false
		}
		base = base.AddDate(0, 0, -n)
	default:
		parts := strings.Fields(day)
		if len(parts) != 2 {
			return time.Time{}, "", false
		}
		wd, ok := weekdays[parts[1]]
		if !ok {
			return time.Time{}, "", false
		}
		diff := int(base.Weekday() - wd)
		switch parts[0] {
		case "last":
			// strictly before the reference day
			if diff <= 0 {
				diff += 7
			}
			base = base.AddDate(0, 0, -diff)
		case "this":
			// on or before the reference day
			if diff < 0 {
				diff += 7
			}
			base = base.AddDate(0, 0, -diff)
		case "next":
			ahead := -diff
			if ahead <= 0 {
				ahead += 7
			}
			base = base.AddDate(0, 0, ahead)
		}
	}

	if hour != "" {
		h, err := strconv.Atoi(hour)
		if err != nil {
			return time.Time{}, "", false
		}
		if meridiem == "" && h >= 1 && h <= 12 && !strings.HasPrefix(hour, "0") {
			meridiem = impliedMeridiem(day, h)
			// "yesterday at 7" could be either; only the day is known
			if meridiem == "" {
				return base, constants.PrecisionDay, true
			}
		}
		mins := 0
		if minute != "" {
			mins, _ = strconv.Atoi(minute)
		}
		switch strings.ReplaceAll(meridiem, ".", "") {
		case "am":
			if h == 12 {
				h = 0
			}
		case "pm":
			if h < 12 {
				h += 12
			}
		}
		if h > 23 || mins > 59 {
			return time.Time{}, "", false
		}
		// "last night at 1am" belongs to the reference day
		if day == "last night" && h < 12 {
			base = base.AddDate(0, 0, 1)
		}
		return time.Date(base.Year(), base.Month(), base.Day(), h, mins, 0, 0, loc), constants.PrecisionExact, true
	}
	if approxHour >= 0 {
		return time.Date(base.Year(), base.Month(), base.Day(), approxHour, 0, 0, 0, loc), constants.PrecisionApproximate, true
	}
	return base, constants.PrecisionDay, true
}

// FindTemporalPhrases resolves every relative phrase in text, in order of first appearance.
func FindTemporalPhrases(text string, ref time.Time) []TemporalHint {
	var hints []TemporalHint
	seen := map[string]bool{}
	for _, loc := range reScan.FindAllStringSubmatchIndex(text, -1) {
		m := submatches(text, loc)
		if !wordEnd(text, loc[1]) {
			m = reScanWord.FindStringSubmatch(text[loc[0]:])
			if m == nil {
				continue
			}
		}
		phrase := strings.Join(strings.Fields(strings.ToLower(m[0])), " ")
		if seen[phrase] {
			continue
		}
		seen[phrase] = true
		t, prec, ok := resolveMatch(strings.ToLower(m[1]), m[2], m[3], strings.ToLower(m[4]), ref)
		if !ok {
			continue
		}
		hints = append(hints, TemporalHint{Phrase: phrase, Resolved: t, Precision: prec})
	}
	return hints
}

// impliedMeridiem reads am/pm off a part-of-day phrase like "this morning at 7".
func impliedMeridiem(day string, h int) string {
	switch day {
	case "this morning":
		return "am"
	case "this afternoon", "this evening", "tonight":
		return "pm"
	case "last night":
		if h >= 6 && h != 12 {
			return "pm"
		}
		return "am"
	}
	return ""
}

func submatches(text string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

// wordEnd reports whether a match ending at end does not split a word.
func wordEnd(text string, end int) bool {
	if end == 0 || end >= len(text) {
		return true
	}
	return !isWordByte(text[end-1]) || !isWordByte(text[end])
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
