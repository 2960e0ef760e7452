package repository

import (
	"context"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/internal/entity"
)

const usersTable = "users"

var userColumns = []string{"id", "display_name", "timezone", "created_at", "updated_at"}

type UserRepository struct{ base }

// Create inserts a user, assigning an id when none is set.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if strings.TrimSpace(u.Timezone) == "" {
		u.Timezone = "UTC"
	}
	now := r.now()
	u.CreatedAt, u.UpdatedAt = now, now
	query, args := r.sb.Insert(usersTable).
		Columns(userColumns...).
		Values(u.ID, u.DisplayName, u.Timezone, ts(now), ts(now)).
		Query()
	if _, err := r.exec(ctx, "create user", query, args); err != nil {
		return err
	}
	r.log.Debug("user.created", "user_id", u.ID)
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query, args := r.sb.Select(userColumns...).
		From(r.sb.Table(usersTable)).
		Where(entsql.EQ("id", id)).
		Query()
	var (
		u                entity.User
		created, updated string
	)
	err := r.q.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.DisplayName, &u.Timezone, &created, &updated)
	if err != nil {
		return nil, dbErr("get user", err)
	}
	if u.CreatedAt, err = parseTS(created); err != nil {
		return nil, dbErr("get user", err)
	}
	if u.UpdatedAt, err = parseTS(updated); err != nil {
		return nil, dbErr("get user", err)
	}
	return &u, nil
}

// Exists reports whether a user row exists.
func (r *UserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := r.Get(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	}
	return false, err
}
