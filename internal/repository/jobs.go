package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/constants"
	"github.com/joseph-ayodele/custody-tracker/internal/common"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
)

const jobsTable = "extraction_jobs"

var jobColumns = []string{
	"id", "user_id", "type", "status", "journal_entry_id", "attempt",
	"started_at", "completed_at", "error_message", "result_summary",
	"created_at", "updated_at",
}

// ExtractionJobRepository owns every status transition of extraction_jobs.
// Each transition is guarded by the expected current status, so terminal rows never change.
type ExtractionJobRepository struct{ base }

// Create inserts a pending job. A second active job for the same entry is ErrConflict.
func (r *ExtractionJobRepository) Create(ctx context.Context, j *entity.ExtractionJob) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Type == "" {
		j.Type = constants.JobTypeJournalExtraction
	}
	now := r.now()
	j.Status = constants.JobStatusPending
	j.CreatedAt, j.UpdatedAt = now, now

	query, args := r.sb.Insert(jobsTable).
		Columns("id", "user_id", "type", "status", "journal_entry_id", "attempt", "created_at", "updated_at").
		Values(j.ID, j.UserID, j.Type, string(j.Status), j.JournalEntryID, 0, ts(now), ts(now)).
		Query()
	if _, err := r.exec(ctx, "create extraction job", query, args); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return common.Conflict("an extraction job is already active for this entry")
		}
		return err
	}
	r.log.Info("job.created", "job_id", j.ID, "entry_id", j.JournalEntryID, "user_id", j.UserID)
	return nil
}

func (r *ExtractionJobRepository) Get(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error) {
	return r.getWhere(ctx, entsql.EQ("id", id))
}

// GetForUser returns the job only when it belongs to userID.
func (r *ExtractionJobRepository) GetForUser(ctx context.Context, userID, id uuid.UUID) (*entity.ExtractionJob, error) {
	return r.getWhere(ctx, entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID)))
}

// ActiveForEntry returns the pending or processing job for an entry, or nil.
func (r *ExtractionJobRepository) ActiveForEntry(ctx context.Context, entryID uuid.UUID) (*entity.ExtractionJob, error) {
	j, err := r.getWhere(ctx, entsql.And(
		entsql.EQ("journal_entry_id", entryID),
		entsql.In("status", string(constants.JobStatusPending), string(constants.JobStatusProcessing)),
	))
	if isNotFound(err) {
		return nil, nil
	}
	return j, err
}

func (r *ExtractionJobRepository) getWhere(ctx context.Context, p *entsql.Predicate) (*entity.ExtractionJob, error) {
	query, args := r.sb.Select(jobColumns...).
		From(r.sb.Table(jobsTable)).
		Where(p).
		Limit(1).
		Query()
	return scanJob(r.q.QueryRowContext(ctx, query, args...))
}

// Claim moves a pending job to processing. It reports false when the job was not pending.
func (r *ExtractionJobRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	now := ts(r.now())
	query, args := r.sb.Update(jobsTable).
		Set("status", string(constants.JobStatusProcessing)).
		Set("started_at", now).
		Set("updated_at", now).
		Add("attempt", 1).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("status", string(constants.JobStatusPending)))).
		Query()
	n, err := r.exec(ctx, "claim extraction job", query, args)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Complete finalizes a processing job with its result summary.
func (r *ExtractionJobRepository) Complete(ctx context.Context, id uuid.UUID, summary entity.ResultSummary, at time.Time) error {
	if summary.EventIDs == nil {
		summary.EventIDs = []uuid.UUID{}
	}
	body, err := jsonText(summary)
	if err != nil {
		return dbErr("encode result summary", err)
	}
	query, args := r.sb.Update(jobsTable).
		Set("status", string(constants.JobStatusCompleted)).
		Set("result_summary", body).
		Set("error_message", nil).
		Set("completed_at", ts(at)).
		Set("updated_at", ts(at)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("status", string(constants.JobStatusProcessing)))).
		Query()
	n, err := r.exec(ctx, "complete extraction job", query, args)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.Conflict("extraction job is no longer processing")
	}
	return nil
}

// Fail moves a non-terminal job to failed. It reports false when the job was already terminal.
func (r *ExtractionJobRepository) Fail(ctx context.Context, id uuid.UUID, message string) (bool, error) {
	return r.finish(ctx, id, constants.JobStatusFailed, &message,
		constants.JobStatusPending, constants.JobStatusProcessing)
}

// Cancel moves a pending job to cancelled. It reports false when the job was not pending.
func (r *ExtractionJobRepository) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.finish(ctx, id, constants.JobStatusCancelled, nil, constants.JobStatusPending)
}

func (r *ExtractionJobRepository) finish(ctx context.Context, id uuid.UUID, to constants.JobStatus, message *string, from ...constants.JobStatus) (bool, error) {
	now := ts(r.now())
	query, args := r.sb.Update(jobsTable).
		Set("status", string(to)).
		Set("error_message", nullStr(message)).
		Set("completed_at", now).
		Set("updated_at", now).
		Where(entsql.And(entsql.EQ("id", id), entsql.In("status", statusArgs(from)...))).
		Query()
	n, err := r.exec(ctx, "finish extraction job", query, args)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListByStatus returns jobs in status, oldest first.
func (r *ExtractionJobRepository) ListByStatus(ctx context.Context, status constants.JobStatus, limit int) ([]entity.ExtractionJob, error) {
	sel := r.sb.Select(jobColumns...).
		From(r.sb.Table(jobsTable)).
		Where(entsql.EQ("status", string(status))).
		OrderBy("created_at", "id")
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()
	return r.list(ctx, query, args)
}

// ListStuck returns processing jobs that started before cutoff.
func (r *ExtractionJobRepository) ListStuck(ctx context.Context, cutoff time.Time) ([]entity.ExtractionJob, error) {
	query, args := r.sb.Select(jobColumns...).
		From(r.sb.Table(jobsTable)).
		Where(entsql.And(
			entsql.EQ("status", string(constants.JobStatusProcessing)),
			entsql.LT("started_at", ts(cutoff)),
		)).
		OrderBy("started_at").
		Query()
	return r.list(ctx, query, args)
}

// CountByStatus returns the number of jobs per status.
func (r *ExtractionJobRepository) CountByStatus(ctx context.Context) (map[constants.JobStatus]int, error) {
	query, args := r.sb.Select("status", entsql.Count("*")).
		From(r.sb.Table(jobsTable)).
		GroupBy("status").
		Query()
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr("count extraction jobs", err)
	}
	defer rows.Close()
	out := map[constants.JobStatus]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, dbErr("count extraction jobs", err)
		}
		out[constants.JobStatus(status)] = n
	}
	return out, dbErr("count extraction jobs", rows.Err())
}

func (r *ExtractionJobRepository) list(ctx context.Context, query string, args []any) ([]entity.ExtractionJob, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr("list extraction jobs", err)
	}
	defer rows.Close()
	var out []entity.ExtractionJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, dbErr("list extraction jobs", rows.Err())
}

func scanJob(row rowScanner) (*entity.ExtractionJob, error) {
	var (
		j                        entity.ExtractionJob
		status, created, updated string
		startedAt, completedAt   sql.NullString
		errMsg, summary          sql.NullString
	)
	err := row.Scan(&j.ID, &j.UserID, &j.Type, &status, &j.JournalEntryID, &j.Attempt,
		&startedAt, &completedAt, &errMsg, &summary, &created, &updated)
	if err != nil {
		return nil, dbErr("get extraction job", err)
	}
	j.Status = constants.JobStatus(status)
	j.ErrorMessage = strPtr(errMsg)
	if summary.Valid && summary.String != "" {
		var rs entity.ResultSummary
		if err := fromJSON(summary.String, &rs); err != nil {
			return nil, dbErr("decode result summary", err)
		}
		j.ResultSummary = &rs
	}
	if j.StartedAt, err = parseNullTS(startedAt); err != nil {
		return nil, dbErr("decode extraction job", err)
	}
	if j.CompletedAt, err = parseNullTS(completedAt); err != nil {
		return nil, dbErr("decode extraction job", err)
	}
	if j.CreatedAt, err = parseTS(created); err != nil {
		return nil, dbErr("decode extraction job", err)
	}
	if j.UpdatedAt, err = parseTS(updated); err != nil {
		return nil, dbErr("decode extraction job", err)
	}
	return &j, nil
}
