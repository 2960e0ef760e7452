package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/constants"
	"github.com/joseph-ayodele/custody-tracker/internal/common"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
)

const entriesTable = "journal_entries"

var entryColumns = []string{
	"id", "user_id", "case_id", "text", "reference_date", "status",
	"raw_extraction", "processing_error",
	"created_at", "updated_at", "processed_at", "completed_at",
}

type JournalEntryRepository struct{ base }

// Create inserts a draft entry.
func (r *JournalEntryRepository) Create(ctx context.Context, e *entity.JournalEntry) error {
	if strings.TrimSpace(e.Text) == "" {
		return common.InvalidInput("entry text is required")
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := r.now()
	e.Status = constants.EntryStatusDraft
	e.CreatedAt, e.UpdatedAt = now, now

	query, args := r.sb.Insert(entriesTable).
		Columns("id", "user_id", "case_id", "text", "reference_date", "status", "created_at", "updated_at").
		Values(e.ID, e.UserID, nullUUID(e.CaseID), e.Text, nullStr(e.ReferenceDate), string(e.Status), ts(now), ts(now)).
		Query()
	_, err := r.exec(ctx, "create journal entry", query, args)
	return err
}

// Get returns the entry only when it belongs to userID.
func (r *JournalEntryRepository) Get(ctx context.Context, userID, id uuid.UUID) (*entity.JournalEntry, error) {
	query, args := r.sb.Select(entryColumns...).
		From(r.sb.Table(entriesTable)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID))).
		Query()
	return scanEntry(r.q.QueryRowContext(ctx, query, args...))
}

// SetStatus moves the entry to status only when it is currently one of from.
// It returns ErrConflict when the guard does not match.
func (r *JournalEntryRepository) SetStatus(ctx context.Context, id uuid.UUID, status constants.EntryStatus, processingError *string, from ...constants.EntryStatus) error {
	upd := r.sb.Update(entriesTable).
		Set("status", string(status)).
		Set("processing_error", nullStr(processingError)).
		Set("updated_at", ts(r.now()))
	preds := []*entsql.Predicate{entsql.EQ("id", id)}
	if len(from) > 0 {
		preds = append(preds, entsql.In("status", statusArgs(from)...))
	}
	query, args := upd.Where(entsql.And(preds...)).Query()
	n, err := r.exec(ctx, "update journal entry status", query, args)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.Conflict("journal entry is not in an expected state")
	}
	return nil
}

// Complete records the extraction outcome on the entry.
func (r *JournalEntryRepository) Complete(ctx context.Context, id uuid.UUID, status constants.EntryStatus, raw json.RawMessage, at time.Time) error {
	var rawArg any
	if len(raw) > 0 {
		rawArg = string(raw)
	}
	query, args := r.sb.Update(entriesTable).
		Set("status", string(status)).
		Set("raw_extraction", rawArg).
		Set("processing_error", nil).
		Set("processed_at", ts(at)).
		Set("completed_at", ts(at)).
		Set("updated_at", ts(at)).
		Where(entsql.EQ("id", id)).
		Query()
	n, err := r.exec(ctx, "complete journal entry", query, args)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.NotFound("journal entry not found")
	}
	return nil
}

func statusArgs[S ~string](ss []S) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*entity.JournalEntry, error) {
	var (
		e                        entity.JournalEntry
		caseID                   uuid.NullUUID
		refDate, raw, procErr    sql.NullString
		status, created, updated string
		processedAt, completedAt sql.NullString
	)
	err := row.Scan(&e.ID, &e.UserID, &caseID, &e.Text, &refDate, &status,
		&raw, &procErr, &created, &updated, &processedAt, &completedAt)
	if err != nil {
		return nil, dbErr("get journal entry", err)
	}
	e.CaseID = uuidPtr(caseID)
	e.ReferenceDate = strPtr(refDate)
	e.Status = constants.EntryStatus(status)
	if raw.Valid && raw.String != "" {
		e.RawExtraction = json.RawMessage(raw.String)
	}
	e.ProcessingError = strPtr(procErr)
	if e.CreatedAt, err = parseTS(created); err != nil {
		return nil, dbErr("decode journal entry", err)
	}
	if e.UpdatedAt, err = parseTS(updated); err != nil {
		return nil, dbErr("decode journal entry", err)
	}
	if e.ProcessedAt, err = parseNullTS(processedAt); err != nil {
		return nil, dbErr("decode journal entry", err)
	}
	if e.CompletedAt, err = parseNullTS(completedAt); err != nil {
		return nil, dbErr("decode journal entry", err)
	}
	return &e, nil
}
