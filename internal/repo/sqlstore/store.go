// Package sqlstore implements repo.Store on Postgres using ent's SQL
// builder and driver.
package sqlstore

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/lib/pq"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

var pg = sql.Dialect(dialect.Postgres)

type Store struct {
	drv  *sql.Driver
	conn dialect.ExecQuerier
	tx   dialect.Tx
}

var _ repo.Store = (*Store)(nil)

func New(drv *sql.Driver) *Store {
	return &Store{drv: drv, conn: drv}
}

func (s *Store) Users() repo.UserRepository                 { return users{s} }
func (s *Store) Bookings() repo.BookingRepository           { return bookings{s} }
func (s *Store) Payments() repo.PaymentRepository           { return payments{s} }
func (s *Store) Refunds() repo.RefundRepository             { return refunds{s} }
func (s *Store) Chats() repo.ChatRepository                 { return chats{s} }
func (s *Store) Reviews() repo.ReviewRepository             { return reviews{s} }
func (s *Store) HealthRecords() repo.HealthRecordRepository { return records{s} }
func (s *Store) AuditLogs() repo.AuditLogRepository         { return auditLogs{s} }

func (s *Store) Ping(ctx context.Context) error {
	return s.drv.DB().PingContext(ctx)
}

func (s *Store) Close() error {
	return s.drv.Close()
}

// Driver exposes the underlying ent driver, for migrations.
func (s *Store) Driver() *sql.Driver { return s.drv }

func (s *Store) InTx(ctx context.Context, fn func(tx repo.Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{drv: s.drv, conn: tx, tx: tx}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", mapErr(err))
	}
	return nil
}

type querier interface {
	Query() (string, []any)
}

func (s *Store) exec(ctx context.Context, b querier) (int64, error) {
	q, args := b.Query()
	var res stdsql.Result
	if err := s.conn.Exec(ctx, q, args, &res); err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// query runs b and calls scan once per row.
func (s *Store) query(ctx context.Context, b querier, scan func(rows *sql.Rows) error) error {
	q, args := b.Query()
	rows := &sql.Rows{}
	if err := s.conn.Query(ctx, q, args, rows); err != nil {
		return mapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// exists reports whether the selector yields at least one row.
func (s *Store) exists(ctx context.Context, sel *sql.Selector) (bool, error) {
	found := false
	err := s.query(ctx, sel.Limit(1), func(*sql.Rows) error {
		found = true
		return nil
	})
	return found, err
}

func mapErr(err error) error {
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation:
		return fmt.Errorf("%w: %s", repo.ErrConflict, pqErr.Constraint)
	case errors.Is(err, stdsql.ErrNoRows):
		return repo.ErrNotFound
	}
	return err
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns stdsql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func page(sel *sql.Selector, p repo.Page) *sql.Selector {
	p = p.Normalize()
	return sel.Limit(p.PerPage).Offset(p.Offset())
}
