// Package contextbuilder assembles the prompt input for one extraction. It is a pure
// function of its inputs and the injected clock, so identical inputs always produce
// identical prompts.
package contextbuilder

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/constants"
	"github.com/joseph-ayodele/custody-tracker/internal/common"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
	"github.com/joseph-ayodele/custody-tracker/internal/llm"
)

// Clock returns the current time.
type Clock func() time.Time

// Input is everything the builder reads.
type Input struct {
	EntryText     string
	ReferenceDate string // optional, user-declared
	Evidence      []entity.EvidenceItem
	Case          *entity.Case
	DisplayName   string
	Timezone      string
}

// Context is the assembled prompt input plus what the builder resolved along the way.
type Context struct {
	Request         llm.ExtractionRequest
	ReferenceDate   time.Time
	DeclaredRef     bool
	Location        *time.Location
	Hints           []TemporalHint
	GuidanceApplied bool
	SkippedEvidence []uuid.UUID
}

type Builder struct {
	clock    Clock
	guidance map[string]string
}

type Option func(*Builder)

// WithClock injects the time source used when no reference date is declared.
func WithClock(c Clock) Option {
	return func(b *Builder) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithGuidance replaces the jurisdiction guidance table.
func WithGuidance(table map[string]string) Option {
	return func(b *Builder) {
		if table != nil {
			b.guidance = table
		}
	}
}

func New(opts ...Option) *Builder {
	b := &Builder{clock: time.Now, guidance: constants.JurisdictionGuidance}
	for _, o := range opts {
		o(b)
	}
	return b
}

var refLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Build assembles the extraction request. Evidence that is not processed is left out
// and reported in SkippedEvidence; whether that is acceptable is the caller's decision.
func (b *Builder) Build(in Input) (Context, error) {
	text := strings.TrimSpace(in.EntryText)
	if text == "" {
		return Context{}, common.InvalidInput("entry text is required")
	}
	loc, err := ParseTimezone(in.Timezone)
	if err != nil {
		return Context{}, common.NewAppError(common.CodeInvalidInput, "invalid user timezone", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}

	ref, declared := b.referenceDate(in.ReferenceDate, loc)
	hints := FindTemporalPhrases(text, ref)

	evidence, skipped := readyEvidence(in.Evidence)
	summaries := make([]llm.EvidenceSummary, 0, len(evidence))
	for _, e := range evidence {
		summaries = append(summaries, llm.EvidenceSummary{
			EvidenceID: e.ID.String(),
			Annotation: deref(e.Annotation),
			Summary:    strings.TrimSpace(*e.Summary),
		})
	}

	var guidance string
	var applied bool
	if in.Case != nil {
		guidance, applied = constants.GuidanceFor(in.Case.Jurisdiction, b.guidance)
	}

	sys := b.systemPrompt(ref, loc, guidance)
	user := b.userPrompt(in, text, ref, declared, hints, summaries)

	req := llm.ExtractionRequest{
		EventText:         text,
		EvidenceSummaries: summaries,
		SystemPrompt:      sys,
		UserPrompt:        user,
	}
	if declared {
		req.ReferenceDate = strings.TrimSpace(in.ReferenceDate)
	} else {
		req.ReferenceDate = ref.Format(time.DateOnly)
	}

	return Context{
		Request:         req,
		ReferenceDate:   ref,
		DeclaredRef:     declared,
		Location:        loc,
		Hints:           hints,
		GuidanceApplied: applied,
		SkippedEvidence: skipped,
	}, nil
}

// referenceDate uses the declared value when it parses, else now in the user's timezone.
func (b *Builder) referenceDate(declared string, loc *time.Location) (time.Time, bool) {
	declared = strings.TrimSpace(declared)
	if declared != "" {
		for _, layout := range refLayouts {
			if t, err := time.ParseInLocation(layout, declared, loc); err == nil {
				return t.In(loc), true
			}
		}
	}
	return b.clock().In(loc), false
}

func (b *Builder) systemPrompt(ref time.Time, loc *time.Location, guidance string) string {
	offset := ref.Format("-07:00")
	var sb strings.Builder
	sb.WriteString(llm.ExtractionPolicy())
	sb.WriteString("\n\nTemporal rules:\n")
	fmt.Fprintf(&sb, "- The reference date is %s (%s). The user's timezone is %s, UTC offset %s.\n",
		ref.Format(time.DateOnly), ref.Weekday(), loc.String(), offset)
	fmt.Fprintf(&sb, "- Every timestamp must be RFC3339 in the user's local offset, for example %sT19:00:00%s.\n",
		ref.Format(time.DateOnly), offset)
	sb.WriteString("- Resolve relative phrases such as \"yesterday\", \"last Tuesday\" or \"this morning\" against the reference date, never against today's real date.\n")
	sb.WriteString("- Use time_precision exact when the time of day is stated, day when only the date is known (use T00:00:00), approximate for rough times, and unknown with a null timestamp otherwise.\n")
	if guidance != "" {
		sb.WriteString("\nJurisdiction guidance:\n")
		sb.WriteString(guidance)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *Builder) userPrompt(in Input, text string, ref time.Time, declared bool, hints []TemporalHint, ev []llm.EvidenceSummary) string {
	var sb strings.Builder
	if name := strings.TrimSpace(in.DisplayName); name != "" {
		fmt.Fprintf(&sb, "Journal author: %s\n", name)
	}
	if declared {
		fmt.Fprintf(&sb, "The author dated this entry: %s\n", strings.TrimSpace(in.ReferenceDate))
	} else if r := strings.TrimSpace(in.ReferenceDate); r != "" {
		fmt.Fprintf(&sb, "The author described the timing as: %q\n", r)
	}

	if c := in.Case; c != nil {
		sb.WriteString("\nCase:\n")
		writeLine(&sb, "Title", c.Title)
		writeLine(&sb, "Jurisdiction", c.Jurisdiction)
		var parties []string
		for _, p := range c.Parties {
			parties = append(parties, fmt.Sprintf("%s (%s)", p.Name, p.Role))
		}
		writeLine(&sb, "Parties", strings.Join(parties, ", "))
		var children []string
		for _, ch := range c.Children {
			if ch.Age != nil {
				children = append(children, fmt.Sprintf("%s, age %d", ch.Name, *ch.Age))
			} else {
				children = append(children, ch.Name)
			}
		}
		writeLine(&sb, "Children", strings.Join(children, "; "))
		writeLine(&sb, "Goals", strings.Join(c.Goals, "; "))
		writeLine(&sb, "Risk flags", strings.Join(c.RiskFlags, "; "))
		var dates []string
		for _, d := range c.CourtDates {
			dates = append(dates, d.Date+" "+d.Description)
		}
		writeLine(&sb, "Court dates", strings.Join(dates, "; "))
	}

	if len(hints) > 0 {
		sb.WriteString("\nResolved time references:\n")
		for _, h := range hints {
			at := h.Resolved.Format(time.RFC3339)
			if h.Precision == constants.PrecisionDay {
				at = h.Resolved.Format(time.DateOnly)
			}
			fmt.Fprintf(&sb, "- %q = %s (%s)\n", h.Phrase, at, h.Precision)
		}
	}

	if len(ev) > 0 {
		sb.WriteString("\nEvidence:\n")
		for _, e := range ev {
			if e.Annotation != "" {
				fmt.Fprintf(&sb, "Evidence [%s] (%s): %s\n", e.EvidenceID, e.Annotation, e.Summary)
			} else {
				fmt.Fprintf(&sb, "Evidence [%s]: %s\n", e.EvidenceID, e.Summary)
			}
		}
	}

	sb.WriteString("\nJournal entry:\n")
	sb.WriteString(text)
	sb.WriteString("\n")
	return sb.String()
}

// readyEvidence returns processed items in sort order and the ids of the rest.
func readyEvidence(items []entity.EvidenceItem) ([]entity.EvidenceItem, []uuid.UUID) {
	sorted := make([]entity.EvidenceItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SortOrder != sorted[j].SortOrder {
			return sorted[i].SortOrder < sorted[j].SortOrder
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})
	var ready []entity.EvidenceItem
	var skipped []uuid.UUID
	for _, e := range sorted {
		if e.Ready() {
			ready = append(ready, e)
		} else {
			skipped = append(skipped, e.ID)
		}
	}
	return ready, skipped
}

func writeLine(sb *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(sb, "%s: %s\n", label, value)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
