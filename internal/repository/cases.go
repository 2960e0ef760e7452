package repository

import (
	"context"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/internal/entity"
)

const casesTable = "cases"

var caseColumns = []string{
	"id", "user_id", "title", "jurisdiction",
	"parties", "children", "goals", "risk_flags", "court_dates",
	"created_at", "updated_at",
}

type CaseRepository struct{ base }

func (r *CaseRepository) Create(ctx context.Context, c *entity.Case) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := r.now()
	c.CreatedAt, c.UpdatedAt = now, now

	vals := []any{c.ID, c.UserID, c.Title, c.Jurisdiction}
	for _, v := range []any{c.Parties, c.Children, c.Goals, c.RiskFlags, c.CourtDates} {
		s, err := jsonText(v)
		if err != nil {
			return dbErr("create case", err)
		}
		vals = append(vals, s)
	}
	vals = append(vals, ts(now), ts(now))

	query, args := r.sb.Insert(casesTable).Columns(caseColumns...).Values(vals...).Query()
	_, err := r.exec(ctx, "create case", query, args)
	return err
}

// Get returns the case only when it belongs to userID.
func (r *CaseRepository) Get(ctx context.Context, userID, id uuid.UUID) (*entity.Case, error) {
	query, args := r.sb.Select(caseColumns...).
		From(r.sb.Table(casesTable)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID))).
		Query()
	var (
		c                                           entity.Case
		parties, children, goals, risks, courtDates string
		created, updated                            string
	)
	err := r.q.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.UserID, &c.Title, &c.Jurisdiction,
		&parties, &children, &goals, &risks, &courtDates,
		&created, &updated,
	)
	if err != nil {
		return nil, dbErr("get case", err)
	}
	for _, f := range []struct {
		src string
		dst any
	}{
		{parties, &c.Parties}, {children, &c.Children}, {goals, &c.Goals},
		{risks, &c.RiskFlags}, {courtDates, &c.CourtDates},
	} {
		if err := fromJSON(f.src, f.dst); err != nil {
			return nil, dbErr("decode case", err)
		}
	}
	if c.CreatedAt, err = parseTS(created); err != nil {
		return nil, dbErr("decode case", err)
	}
	if c.UpdatedAt, err = parseTS(updated); err != nil {
		return nil, dbErr("decode case", err)
	}
	return &c, nil
}
