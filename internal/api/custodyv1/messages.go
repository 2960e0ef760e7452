package custodyv1

// Timestamps are RFC3339 strings and ids are UUID strings.

type User struct {
	Id          string `json:"id"`
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone"`
	CreatedAt   string `json:"created_at"`
}

type Party struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type Child struct {
	Name string `json:"name"`
	Age  *int   `json:"age,omitempty"`
}

type CourtDate struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

type Case struct {
	Id           string      `json:"id"`
	Title        string      `json:"title"`
	Jurisdiction string      `json:"jurisdiction"`
	Parties      []Party     `json:"parties,omitempty"`
	Children     []Child     `json:"children,omitempty"`
	Goals        []string    `json:"goals,omitempty"`
	RiskFlags    []string    `json:"risk_flags,omitempty"`
	CourtDates   []CourtDate `json:"court_dates,omitempty"`
	CreatedAt    string      `json:"created_at"`
}

type Entry struct {
	Id              string `json:"id"`
	CaseId          string `json:"case_id,omitempty"`
	Text            string `json:"text"`
	ReferenceDate   string `json:"reference_date,omitempty"`
	Status          string `json:"status"`
	ProcessingError string `json:"processing_error,omitempty"`
	CreatedAt       string `json:"created_at"`
	CompletedAt     string `json:"completed_at,omitempty"`
}

type Evidence struct {
	Id         string   `json:"id"`
	EntryId    string   `json:"entry_id"`
	SourceType string   `json:"source_type"`
	StorageRef string   `json:"storage_ref"`
	Summary    string   `json:"summary,omitempty"`
	Annotation string   `json:"annotation,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Processed  bool     `json:"processed"`
	SortOrder  int      `json:"sort_order"`
}

type ResultSummary struct {
	EventsCreated      int      `json:"events_created"`
	EvidenceProcessed  int      `json:"evidence_processed"`
	ActionItemsCreated int      `json:"action_items_created"`
	EventIds           []string `json:"event_ids,omitempty"`
}

type Job struct {
	Id            string         `json:"id"`
	EntryId       string         `json:"entry_id"`
	Type          string         `json:"type"`
	Status        string         `json:"status"`
	Attempt       int            `json:"attempt"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	ResultSummary *ResultSummary `json:"result_summary,omitempty"`
	CreatedAt     string         `json:"created_at"`
	StartedAt     string         `json:"started_at,omitempty"`
	CompletedAt   string         `json:"completed_at,omitempty"`
}

type Event struct {
	Id                 string   `json:"id"`
	EntryId            string   `json:"entry_id"`
	Type               string   `json:"type"`
	LegacyType         string   `json:"event_type"`
	SchemaVersion      int      `json:"schema_version"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Timestamp          string   `json:"timestamp,omitempty"`
	TimePrecision      string   `json:"time_precision"`
	DurationMinutes    *int     `json:"duration_minutes,omitempty"`
	Location           string   `json:"location,omitempty"`
	Participants       []string `json:"participants,omitempty"`
	ChildInvolved      bool     `json:"child_involved"`
	AgreementViolation *bool    `json:"agreement_violation,omitempty"`
	SafetyConcern      bool     `json:"safety_concern"`
	WelfareImpact      string   `json:"welfare_impact,omitempty"`
}

type CreateUserRequest struct {
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone"`
}

type CreateUserResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type CreateCaseRequest struct {
	Case *Case `json:"case"`
}

type CreateCaseResponse struct {
	Case *Case `json:"case"`
}

type CreateEntryRequest struct {
	Text          string `json:"text"`
	ReferenceDate string `json:"reference_date,omitempty"`
	CaseId        string `json:"case_id,omitempty"`
}

type CreateEntryResponse struct {
	Entry *Entry `json:"entry"`
}

type AddEvidenceRequest struct {
	EntryId    string   `json:"entry_id"`
	SourceType string   `json:"source_type"`
	StorageRef string   `json:"storage_ref"`
	Summary    string   `json:"summary,omitempty"`
	Annotation string   `json:"annotation,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	SortOrder  int      `json:"sort_order"`
}

type AddEvidenceResponse struct {
	Evidence *Evidence `json:"evidence"`
}

// SetEvidenceSummaryRequest records the output of evidence processing. A non-empty
// summary marks the item processed.
type SetEvidenceSummaryRequest struct {
	EntryId    string `json:"entry_id"`
	EvidenceId string `json:"evidence_id"`
	Summary    string `json:"summary"`
}

type SetEvidenceSummaryResponse struct {
	Evidence *Evidence `json:"evidence"`
}

type SubmitEntryRequest struct {
	EntryId string `json:"entry_id"`
}

type SubmitEntryResponse struct {
	Job *Job `json:"job"`
}

type CancelJobRequest struct {
	JobId string `json:"job_id"`
}

type CancelJobResponse struct {
	Job *Job `json:"job"`
}

type GetJobRequest struct {
	JobId string `json:"job_id"`
}

type GetJobResponse struct {
	Job *Job `json:"job"`
}

type WatchJobRequest struct {
	JobId string `json:"job_id"`
}

type ListEventsRequest struct {
	EntryId string `json:"entry_id"`
}

type ListEventsResponse struct {
	Events []*Event `json:"events"`
}
