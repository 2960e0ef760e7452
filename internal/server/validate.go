package server

import (
	"fmt"

	"github.com/joseph-ayodele/custody-tracker/constants"
	pb "github.com/joseph-ayodele/custody-tracker/internal/api/custodyv1"
	"github.com/joseph-ayodele/custody-tracker/internal/common"
	"github.com/joseph-ayodele/custody-tracker/internal/contextbuilder"
	"github.com/joseph-ayodele/custody-tracker/internal/utils"
)

// Field limits for user-supplied text.
const (
	maxNameLen     = 200
	maxEntryLen    = 20000
	maxRefDateLen  = 64
	maxRefLen      = 1024
	maxSummaryLen  = 20000
	maxNoteLen     = 2000
	maxListItemLen = 500
)

var (
	timezone = common.Satisfies(func(s string) error {
		_, err := contextbuilder.ParseTimezone(s)
		return err
	}, "must be an IANA name or UTC offset")
	ymd = common.Satisfies(func(s string) error {
		_, err := utils.ParseYMD(s)
		return err
	}, "must be YYYY-MM-DD")
	evidenceSource = common.OneOf(string(constants.EvidenceImage), string(constants.EvidenceText), string(constants.EvidenceDocument))
)

func validateCreateUser(req *pb.CreateUserRequest) error {
	v := common.NewValidator().
		Field("display_name", req.DisplayName, common.Required, common.MaxLen(maxNameLen)).
		Field("timezone", req.Timezone, common.MaxLen(maxRefDateLen), timezone)
	return common.ValidateAndReturnError(v)
}

func validateCreateCase(req *pb.CreateCaseRequest) error {
	if req.Case == nil {
		return common.InvalidInput("case is required")
	}
	c := req.Case
	v := common.NewValidator().
		Field("case.title", c.Title, common.Required, common.MaxLen(maxNameLen)).
		Field("case.jurisdiction", c.Jurisdiction, common.MaxLen(maxNameLen)).
		Each("case.goals", c.Goals, common.MaxLen(maxListItemLen)).
		Each("case.risk_flags", c.RiskFlags, common.MaxLen(maxListItemLen))
	for i, d := range c.CourtDates {
		v.Field(indexed("case.court_dates", i, "date"), d.Date, common.Required, ymd)
	}
	for i, p := range c.Parties {
		v.Field(indexed("case.parties", i, "name"), p.Name, common.Required, common.MaxLen(maxNameLen))
	}
	return common.ValidateAndReturnError(v)
}

func validateCreateEntry(req *pb.CreateEntryRequest) error {
	v := common.NewValidator().
		Field("text", req.Text, common.Required, common.MaxLen(maxEntryLen)).
		Field("reference_date", req.ReferenceDate, common.MaxLen(maxRefDateLen)).
		Field("case_id", req.CaseId, common.UUID)
	return common.ValidateAndReturnError(v)
}

func validateAddEvidence(req *pb.AddEvidenceRequest) error {
	v := common.NewValidator().
		Field("entry_id", req.EntryId, common.Required, common.UUID).
		Field("storage_ref", req.StorageRef, common.Required, common.MaxLen(maxRefLen)).
		Field("source_type", req.SourceType, evidenceSource).
		Field("summary", req.Summary, common.MaxLen(maxSummaryLen)).
		Field("annotation", req.Annotation, common.MaxLen(maxNoteLen)).
		Each("tags", req.Tags, common.Required, common.MaxLen(maxListItemLen))
	return common.ValidateAndReturnError(v)
}

func validateSetEvidenceSummary(req *pb.SetEvidenceSummaryRequest) error {
	v := common.NewValidator().
		Field("entry_id", req.EntryId, common.Required, common.UUID).
		Field("evidence_id", req.EvidenceId, common.Required, common.UUID).
		Field("summary", req.Summary, common.MaxLen(maxSummaryLen))
	return common.ValidateAndReturnError(v)
}

func indexed(list string, i int, field string) string {
	return fmt.Sprintf("%s[%d].%s", list, i, field)
}
