package utils

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/constants"
	pb "github.com/joseph-ayodele/custody-tracker/internal/api/custodyv1"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
)

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func ToPBUser(u *entity.User) *pb.User {
	return &pb.User{
		Id:          u.ID.String(),
		DisplayName: u.DisplayName,
		Timezone:    u.Timezone,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func ToPBCase(c *entity.Case) *pb.Case {
	out := &pb.Case{
		Id:           c.ID.String(),
		Title:        c.Title,
		Jurisdiction: c.Jurisdiction,
		Goals:        c.Goals,
		RiskFlags:    c.RiskFlags,
		CreatedAt:    c.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, p := range c.Parties {
		out.Parties = append(out.Parties, pb.Party{Name: p.Name, Role: p.Role})
	}
	for _, ch := range c.Children {
		out.Children = append(out.Children, pb.Child{Name: ch.Name, Age: ch.Age})
	}
	for _, d := range c.CourtDates {
		out.CourtDates = append(out.CourtDates, pb.CourtDate{Date: d.Date, Description: d.Description})
	}
	return out
}

// FromPBCase copies the client-editable fields of a case.
func FromPBCase(c *pb.Case) *entity.Case {
	out := &entity.Case{
		Title:        c.Title,
		Jurisdiction: c.Jurisdiction,
		Goals:        c.Goals,
		RiskFlags:    c.RiskFlags,
	}
	for _, p := range c.Parties {
		out.Parties = append(out.Parties, entity.Party{Name: p.Name, Role: p.Role})
	}
	for _, ch := range c.Children {
		out.Children = append(out.Children, entity.Child{Name: ch.Name, Age: ch.Age})
	}
	for _, d := range c.CourtDates {
		out.CourtDates = append(out.CourtDates, entity.CourtDate{Date: d.Date, Description: d.Description})
	}
	return out
}

func ToPBEntry(e *entity.JournalEntry) *pb.Entry {
	out := &pb.Entry{
		Id:              e.ID.String(),
		Text:            e.Text,
		ReferenceDate:   strOrEmpty(e.ReferenceDate),
		Status:          string(e.Status),
		ProcessingError: strOrEmpty(e.ProcessingError),
		CreatedAt:       e.CreatedAt.UTC().Format(time.RFC3339),
		CompletedAt:     timeOrEmpty(e.CompletedAt),
	}
	if e.CaseID != nil {
		out.CaseId = e.CaseID.String()
	}
	return out
}

func ToPBEvidence(e *entity.EvidenceItem) *pb.Evidence {
	return &pb.Evidence{
		Id:         e.ID.String(),
		EntryId:    e.JournalEntryID.String(),
		SourceType: string(e.SourceType),
		StorageRef: e.StorageRef,
		Summary:    strOrEmpty(e.Summary),
		Annotation: strOrEmpty(e.Annotation),
		Tags:       e.Tags,
		Processed:  e.Processed,
		SortOrder:  e.SortOrder,
	}
}

func ToPBJob(j *entity.ExtractionJob) *pb.Job {
	out := &pb.Job{
		Id:           j.ID.String(),
		EntryId:      j.JournalEntryID.String(),
		Type:         j.Type,
		Status:       string(j.Status),
		Attempt:      j.Attempt,
		ErrorMessage: strOrEmpty(j.ErrorMessage),
		CreatedAt:    j.CreatedAt.UTC().Format(time.RFC3339),
		StartedAt:    timeOrEmpty(j.StartedAt),
		CompletedAt:  timeOrEmpty(j.CompletedAt),
	}
	if s := j.ResultSummary; s != nil {
		out.ResultSummary = &pb.ResultSummary{
			EventsCreated:      s.EventsCreated,
			EvidenceProcessed:  s.EvidenceProcessed,
			ActionItemsCreated: s.ActionItemsCreated,
		}
		for _, id := range s.EventIDs {
			out.ResultSummary.EventIds = append(out.ResultSummary.EventIds, id.String())
		}
	}
	return out
}

// FromPBJob rebuilds the fields a client needs to judge a job's outcome.
func FromPBJob(j *pb.Job) (*entity.ExtractionJob, error) {
	id, err := uuid.Parse(j.Id)
	if err != nil {
		return nil, err
	}
	out := &entity.ExtractionJob{ID: id, Type: j.Type, Status: constants.JobStatus(j.Status), Attempt: j.Attempt}
	if j.ErrorMessage != "" {
		msg := j.ErrorMessage
		out.ErrorMessage = &msg
	}
	if s := j.ResultSummary; s != nil {
		out.ResultSummary = &entity.ResultSummary{
			EventsCreated:      s.EventsCreated,
			EvidenceProcessed:  s.EvidenceProcessed,
			ActionItemsCreated: s.ActionItemsCreated,
		}
		for _, raw := range s.EventIds {
			if eid, err := uuid.Parse(raw); err == nil {
				out.ResultSummary.EventIDs = append(out.ResultSummary.EventIDs, eid)
			}
		}
	}
	return out, nil
}

// ToPBEvent renders the v2 view of an event, with the legacy type alongside.
func ToPBEvent(e *entity.Event) *pb.Event {
	out := &pb.Event{
		Id:                 e.ID.String(),
		EntryId:            e.JournalEntryID.String(),
		Type:               string(e.Type),
		LegacyType:         string(e.LegacyType),
		SchemaVersion:      e.SchemaVersion,
		Title:              e.Title,
		Description:        e.Description,
		TimePrecision:      string(e.TimePrecision),
		DurationMinutes:    e.DurationMinutes,
		Location:           strOrEmpty(e.Location),
		Participants:       e.Participants,
		ChildInvolved:      e.ChildInvolved,
		AgreementViolation: e.Relevance.AgreementViolation,
		SafetyConcern:      e.Relevance.SafetyConcern,
	}
	if e.Timestamp != nil {
		// keep the author's offset
		out.Timestamp = e.Timestamp.Format(time.RFC3339)
	}
	if w := e.Relevance.WelfareImpact; w != nil {
		out.WelfareImpact = w.Direction + " " + w.Category + " (" + w.Severity + ")"
	}
	return out
}

func ParseYMD(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
