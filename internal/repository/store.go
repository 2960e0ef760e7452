package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/custody-tracker/internal/dbx"
)

// Store hands out repositories bound either to the database or to one transaction.
type Store struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

type StoreOption func(*Store)

// WithClock sets the time source for created_at/updated_at columns.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(db *DB, logger *slog.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{db: db, log: logger, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DB returns the underlying handle.
func (s *Store) DB() *DB { return s.db }

// Queries is the set of repositories sharing one DBTX.
type Queries struct {
	Users       *UserRepository
	Cases       *CaseRepository
	Entries     *JournalEntryRepository
	Evidence    *EvidenceRepository
	Jobs        *ExtractionJobRepository
	Events      *EventRepository
	ActionItems *ActionItemRepository
}

func (s *Store) bind(q dbx.DBTX) *Queries {
	b := base{q: q, sb: entsql.Dialect(s.db.Dialect()), log: s.log, now: s.now}
	return &Queries{
		Users:       &UserRepository{b},
		Cases:       &CaseRepository{b},
		Entries:     &JournalEntryRepository{b},
		Evidence:    &EvidenceRepository{b},
		Jobs:        &ExtractionJobRepository{b},
		Events:      &EventRepository{b},
		ActionItems: &ActionItemRepository{b},
	}
}

// Q returns repositories that run outside any transaction.
func (s *Store) Q() *Queries { return s.bind(s.db.SQL()) }

// InTx runs fn inside one transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, q *Queries) error) error {
	return dbx.WithTx(ctx, s.db.SQL(), &sql.TxOptions{}, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, s.bind(tx))
	})
}

type base struct {
	q   dbx.DBTX
	sb  *entsql.DialectBuilder
	log *slog.Logger
	now func() time.Time
}

func (b base) exec(ctx context.Context, op string, query string, args []any) (int64, error) {
	res, err := b.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, dbErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbErr(op, err)
	}
	return n, nil
}
