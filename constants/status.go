package constants

// JobStatus is the canonical status for rows in extraction_jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusPending    JobStatus = "pending"    // created, not yet claimed by a worker
	JobStatusProcessing JobStatus = "processing" // handler running
	JobStatusCompleted  JobStatus = "completed"  // terminal: events committed
	JobStatusFailed     JobStatus = "failed"     // terminal: error_message set
	JobStatusCancelled  JobStatus = "cancelled"  // terminal: client cancelled while pending
)

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Active reports whether the job counts against the one-active-job-per-entry rule.
func (s JobStatus) Active() bool {
	return s == JobStatusPending || s == JobStatusProcessing
}

// JobTypeJournalExtraction is the only job type the pipeline runs today.
const JobTypeJournalExtraction = "journal_extraction"

// EntryStatus is the lifecycle status of a journal entry.
type EntryStatus string

const (
	EntryStatusDraft      EntryStatus = "draft"
	EntryStatusProcessing EntryStatus = "processing"
	EntryStatusReview     EntryStatus = "review"
	EntryStatusCompleted  EntryStatus = "completed"
	EntryStatusCancelled  EntryStatus = "cancelled"
	EntryStatusFailed     EntryStatus = "failed"
)

// Submittable reports whether an entry in this status may get a new extraction job.
func (s EntryStatus) Submittable() bool {
	switch s {
	case EntryStatusDraft, EntryStatusFailed, EntryStatusCancelled, EntryStatusReview, EntryStatusCompleted:
		return true
	}
	return false
}
