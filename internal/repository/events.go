package repository

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/constants"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
	"github.com/joseph-ayodele/custody-tracker/internal/mapper"
)

const (
	eventsTable      = "events"
	actionItemsTable = "action_items"
)

var eventColumns = []string{
	"id", "journal_entry_id", "job_id", "user_id",
	"title", "description", "timestamp", "time_precision", "duration_minutes", "location",
	"participants", "child_involved",
	"event_type", "custody_relevance",
	"type_v2", "schema_version", "agreement_violation", "safety_concern",
	"welfare_category", "welfare_direction", "welfare_severity",
	"child_statements", "coparent_interaction", "patterns",
	"created_at",
}

var actionItemColumns = []string{
	"id", "journal_entry_id", "job_id", "user_id", "priority", "type", "description", "deadline", "created_at",
}

type EventRepository struct{ base }

// Insert writes events in one statement. An event with an empty Type is written as a
// legacy-only row, leaving every v2 column null.
func (r *EventRepository) Insert(ctx context.Context, events []entity.Event) error {
	if len(events) == 0 {
		return nil
	}
	ins := r.sb.Insert(eventsTable).Columns(eventColumns...)
	for i := range events {
		vals, err := eventValues(&events[i])
		if err != nil {
			return dbErr("encode event", err)
		}
		ins = ins.Values(vals...)
	}
	query, args := ins.Query()
	_, err := r.exec(ctx, "insert events", query, args)
	return err
}

func eventValues(e *entity.Event) ([]any, error) {
	var stamp any
	if e.Timestamp != nil {
		// keep the author's offset
		stamp = e.Timestamp.Format(time.RFC3339)
	}
	participants, err := jsonText(e.Participants)
	if err != nil {
		return nil, err
	}
	legacy, err := jsonText(e.LegacyRelevance)
	if err != nil {
		return nil, err
	}
	vals := []any{
		e.ID, e.JournalEntryID, nullUUID(e.JobID), e.UserID,
		e.Title, e.Description, stamp, string(e.TimePrecision), nullInt(e.DurationMinutes), nullStr(e.Location),
		participants, e.ChildInvolved,
		string(e.LegacyType), legacy,
	}
	if e.Type == "" {
		return append(vals, nil, e.SchemaVersion, nil, nil, nil, nil, nil, "[]", nil, "[]", ts(e.CreatedAt)), nil
	}

	statements, err := jsonText(e.ChildStatements)
	if err != nil {
		return nil, err
	}
	patterns, err := jsonText(e.Patterns)
	if err != nil {
		return nil, err
	}
	var interaction any
	if e.CoparentInteraction != nil {
		s, err := jsonText(e.CoparentInteraction)
		if err != nil {
			return nil, err
		}
		interaction = s
	}
	var category, direction, severity any
	if w := e.Relevance.WelfareImpact; w != nil {
		category, direction, severity = w.Category, w.Direction, w.Severity
	}
	return append(vals,
		string(e.Type), e.SchemaVersion, nullBool(e.Relevance.AgreementViolation), e.Relevance.SafetyConcern,
		category, direction, severity,
		statements, interaction, patterns,
		ts(e.CreatedAt),
	), nil
}

// ListByEntry returns an entry's events. Legacy-only rows are upgraded on read.
func (r *EventRepository) ListByEntry(ctx context.Context, userID, entryID uuid.UUID) ([]entity.Event, error) {
	return r.list(ctx, entsql.And(entsql.EQ("journal_entry_id", entryID), entsql.EQ("user_id", userID)))
}

// ListByJob returns the events a job created.
func (r *EventRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]entity.Event, error) {
	return r.list(ctx, entsql.EQ("job_id", jobID))
}

// CountByJob returns how many events reference jobID.
func (r *EventRepository) CountByJob(ctx context.Context, jobID uuid.UUID) (int, error) {
	return r.count(ctx, eventsTable, jobID)
}

func (r *EventRepository) count(ctx context.Context, table string, jobID uuid.UUID) (int, error) {
	query, args := r.sb.Select(entsql.Count("*")).
		From(r.sb.Table(table)).
		Where(entsql.EQ("job_id", jobID)).
		Query()
	var n int
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, dbErr("count "+table, err)
	}
	return n, nil
}

func (r *EventRepository) list(ctx context.Context, p *entsql.Predicate) ([]entity.Event, error) {
	query, args := r.sb.Select(eventColumns...).
		From(r.sb.Table(eventsTable)).
		Where(p).
		OrderBy("created_at", "id").
		Query()
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr("list events", err)
	}
	defer rows.Close()
	var out []entity.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mapper.FromLegacyRow(*e))
	}
	return out, dbErr("list events", rows.Err())
}

func scanEvent(row rowScanner) (*entity.Event, error) {
	var (
		e                             entity.Event
		jobID                         uuid.NullUUID
		stamp, location               sql.NullString
		precision, participants       string
		legacyType, legacyRel         string
		typeV2                        sql.NullString
		agreement, safety             sql.NullBool
		category, direction, severity sql.NullString
		statements, patterns          string
		interaction                   sql.NullString
		duration                      sql.NullInt64
		created                       string
	)
	err := row.Scan(
		&e.ID, &e.JournalEntryID, &jobID, &e.UserID,
		&e.Title, &e.Description, &stamp, &precision, &duration, &location,
		&participants, &e.ChildInvolved,
		&legacyType, &legacyRel,
		&typeV2, &e.SchemaVersion, &agreement, &safety,
		&category, &direction, &severity,
		&statements, &interaction, &patterns,
		&created,
	)
	if err != nil {
		return nil, dbErr("scan event", err)
	}
	e.JobID = uuidPtr(jobID)
	if stamp.Valid && stamp.String != "" {
		t, err := time.Parse(time.RFC3339, stamp.String)
		if err != nil {
			return nil, dbErr("decode event timestamp", err)
		}
		e.Timestamp = &t
	}
	e.TimePrecision = constants.TimePrecision(precision)
	e.DurationMinutes = intPtr(duration)
	e.Location = strPtr(location)
	e.LegacyType = constants.LegacyEventType(legacyType)
	if err := fromJSON(participants, &e.Participants); err != nil {
		return nil, dbErr("decode event", err)
	}
	if err := fromJSON(legacyRel, &e.LegacyRelevance); err != nil {
		return nil, dbErr("decode event", err)
	}

	if typeV2.Valid && typeV2.String != "" {
		e.Type = constants.EventType(typeV2.String)
		e.Relevance = entity.CustodyRelevance{
			AgreementViolation: boolPtr(agreement),
			SafetyConcern:      safety.Valid && safety.Bool,
		}
		if category.Valid || direction.Valid || severity.Valid {
			e.Relevance.WelfareImpact = &entity.WelfareImpact{
				Category: category.String, Direction: direction.String, Severity: severity.String,
			}
		}
		if err := fromJSON(statements, &e.ChildStatements); err != nil {
			return nil, dbErr("decode event", err)
		}
		if err := fromJSON(patterns, &e.Patterns); err != nil {
			return nil, dbErr("decode event", err)
		}
		if interaction.Valid && interaction.String != "" {
			var ci entity.CoparentInteraction
			if err := fromJSON(interaction.String, &ci); err != nil {
				return nil, dbErr("decode event", err)
			}
			e.CoparentInteraction = &ci
		}
	}
	if e.CreatedAt, err = parseTS(created); err != nil {
		return nil, dbErr("decode event", err)
	}
	return &e, nil
}

type ActionItemRepository struct{ base }

func (r *ActionItemRepository) Insert(ctx context.Context, items []entity.ActionItem) error {
	if len(items) == 0 {
		return nil
	}
	ins := r.sb.Insert(actionItemsTable).Columns(actionItemColumns...)
	for _, a := range items {
		var deadline any
		if a.Deadline != nil {
			deadline = a.Deadline.Format(time.DateOnly)
		}
		ins = ins.Values(a.ID, a.JournalEntryID, a.JobID, a.UserID, a.Priority, a.Type, a.Description, deadline, ts(a.CreatedAt))
	}
	query, args := ins.Query()
	_, err := r.exec(ctx, "insert action items", query, args)
	return err
}

// CountByJob returns how many action items reference jobID.
func (r *ActionItemRepository) CountByJob(ctx context.Context, jobID uuid.UUID) (int, error) {
	return (&EventRepository{r.base}).count(ctx, actionItemsTable, jobID)
}

// ListByJob returns the action items a job created.
func (r *ActionItemRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]entity.ActionItem, error) {
	query, args := r.sb.Select(actionItemColumns...).
		From(r.sb.Table(actionItemsTable)).
		Where(entsql.EQ("job_id", jobID)).
		OrderBy("created_at", "id").
		Query()
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr("list action items", err)
	}
	defer rows.Close()
	var out []entity.ActionItem
	for rows.Next() {
		var (
			a        uuid.NullUUID
			item     entity.ActionItem
			deadline sql.NullString
			created  string
		)
		if err := rows.Scan(&item.ID, &item.JournalEntryID, &a, &item.UserID, &item.Priority, &item.Type,
			&item.Description, &deadline, &created); err != nil {
			return nil, dbErr("scan action item", err)
		}
		item.JobID = a.UUID
		if deadline.Valid && deadline.String != "" {
			d, err := time.Parse(time.DateOnly, deadline.String)
			if err != nil {
				return nil, dbErr("decode action item", err)
			}
			item.Deadline = &d
		}
		if item.CreatedAt, err = parseTS(created); err != nil {
			return nil, dbErr("decode action item", err)
		}
		out = append(out, item)
	}
	return out, dbErr("list action items", rows.Err())
}
