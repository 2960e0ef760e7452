package repository

import (
	"context"
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/constants"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
)

const evidenceTable = "evidence_items"

var evidenceColumns = []string{
	"id", "journal_entry_id", "source_type", "storage_ref", "summary",
	"tags", "annotation", "processed", "sort_order", "created_at",
}

type EvidenceRepository struct{ base }

func (r *EvidenceRepository) Create(ctx context.Context, e *entity.EvidenceItem) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = r.now()
	tags, err := jsonText(e.Tags)
	if err != nil {
		return dbErr("create evidence", err)
	}
	query, args := r.sb.Insert(evidenceTable).
		Columns(evidenceColumns...).
		Values(e.ID, e.JournalEntryID, string(e.SourceType), e.StorageRef, nullStr(e.Summary),
			tags, nullStr(e.Annotation), e.Processed, e.SortOrder, ts(e.CreatedAt)).
		Query()
	_, err = r.exec(ctx, "create evidence", query, args)
	return err
}

// ListByEntry returns the entry's evidence ordered by sort order, then id.
func (r *EvidenceRepository) ListByEntry(ctx context.Context, entryID uuid.UUID) ([]entity.EvidenceItem, error) {
	query, args := r.sb.Select(evidenceColumns...).
		From(r.sb.Table(evidenceTable)).
		Where(entsql.EQ("journal_entry_id", entryID)).
		OrderBy("sort_order", "id").
		Query()
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr("list evidence", err)
	}
	defer rows.Close()

	var out []entity.EvidenceItem
	for rows.Next() {
		var (
			e                     entity.EvidenceItem
			source, tags, created string
			summary, annotation   sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.JournalEntryID, &source, &e.StorageRef, &summary,
			&tags, &annotation, &e.Processed, &e.SortOrder, &created); err != nil {
			return nil, dbErr("scan evidence", err)
		}
		e.SourceType = constants.EvidenceSource(source)
		e.Summary = strPtr(summary)
		e.Annotation = strPtr(annotation)
		if err := fromJSON(tags, &e.Tags); err != nil {
			return nil, dbErr("decode evidence tags", err)
		}
		if e.CreatedAt, err = parseTS(created); err != nil {
			return nil, dbErr("decode evidence", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("list evidence", err)
	}
	return out, nil
}

// MarkProcessed flags the given items processed and returns how many changed.
// Items without a summary are left alone.
func (r *EvidenceRepository) MarkProcessed(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query, qargs := r.sb.Update(evidenceTable).
		Set("processed", true).
		Where(entsql.And(
			entsql.In("id", args...),
			entsql.NotNull("summary"),
			entsql.EQ("processed", false),
		)).
		Query()
	n, err := r.exec(ctx, "mark evidence processed", query, qargs)
	return int(n), err
}

// SetSummary records the output of the external evidence processor.
func (r *EvidenceRepository) SetSummary(ctx context.Context, id uuid.UUID, summary string) error {
	query, args := r.sb.Update(evidenceTable).
		Set("summary", summary).
		Set("processed", summary != "").
		Where(entsql.EQ("id", id)).
		Query()
	n, err := r.exec(ctx, "set evidence summary", query, args)
	if err != nil {
		return err
	}
	if n == 0 {
		return dbErr("set evidence summary", sql.ErrNoRows)
	}
	return nil
}
