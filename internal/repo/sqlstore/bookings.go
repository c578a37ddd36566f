package sqlstore

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
)

const bookingsTable = "bookings"

var bookingColumns = []string{"id", "user_id", "consultant_id", "date", "time_slot", "notes", "status", "created_at", "updated_at"}

type bookings struct{ s *Store }

func (r bookings) Create(ctx context.Context, b *repo.Booking) error {
	_, err := r.s.exec(ctx, pg.Insert(bookingsTable).
		Columns(bookingColumns...).
		Values(b.ID, b.UserID, b.ConsultantID, b.Date, b.TimeSlot, nullString(b.Notes), string(b.Status), b.CreatedAt, b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r bookings) Get(ctx context.Context, id uuid.UUID) (*repo.Booking, error) {
	return r.one(ctx, r.selectAll().Where(sql.EQ("id", id)))
}

func (r bookings) GetForUpdate(ctx context.Context, id uuid.UUID) (*repo.Booking, error) {
	return r.one(ctx, r.selectAll().Where(sql.EQ("id", id)).ForUpdate())
}

func (r bookings) UpdateStatus(ctx context.Context, id uuid.UUID, status repo.BookingStatus) error {
	n, err := r.s.exec(ctx, pg.Update(bookingsTable).
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(sql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r bookings) List(ctx context.Context, f repo.BookingFilter) ([]*repo.Booking, error) {
	var preds []*sql.Predicate
	if f.UserID != nil {
		preds = append(preds, sql.EQ("user_id", *f.UserID))
	}
	if f.ConsultantID != nil {
		preds = append(preds, sql.EQ("consultant_id", *f.ConsultantID))
	}
	if f.Participant != nil {
		preds = append(preds, sql.Or(sql.EQ("user_id", *f.Participant), sql.EQ("consultant_id", *f.Participant)))
	}
	if f.Status != nil {
		preds = append(preds, sql.EQ("status", string(*f.Status)))
	}
	if f.Date != "" {
		preds = append(preds, sql.EQ("date", f.Date))
	}

	sel := r.selectAll()
	if len(preds) > 0 {
		sel = sel.Where(sql.And(preds...))
	}
	sel = page(sel.OrderBy(sql.Desc("created_at")), f.Page)

	var out []*repo.Booking
	err := r.s.query(ctx, sel, func(rows *sql.Rows) error {
		b, err := scanBooking(rows)
		if err != nil {
			return err
		}
		out = append(out, b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

func (r bookings) SlotRequested(ctx context.Context, consultantID uuid.UUID, date, slot string) (bool, error) {
	return r.s.exists(ctx, pg.Select("id").From(pg.Table(bookingsTable)).Where(sql.And(
		sql.EQ("consultant_id", consultantID),
		sql.EQ("date", date),
		sql.EQ("time_slot", slot),
	)))
}

func (r bookings) UserHoldsSlot(ctx context.Context, userID uuid.UUID, date, slot string) (bool, error) {
	return r.s.exists(ctx, pg.Select("id").From(pg.Table(bookingsTable)).Where(sql.And(
		sql.EQ("user_id", userID),
		sql.EQ("date", date),
		sql.EQ("time_slot", slot),
		sql.In("status", string(repo.BookingPending), string(repo.BookingAccepted)),
	)))
}

func (r bookings) AcceptedElsewhere(ctx context.Context, consultantID uuid.UUID, date, slot string, exclude uuid.UUID) (bool, error) {
	return r.s.exists(ctx, pg.Select("id").From(pg.Table(bookingsTable)).Where(sql.And(
		sql.EQ("consultant_id", consultantID),
		sql.EQ("date", date),
		sql.EQ("time_slot", slot),
		sql.EQ("status", string(repo.BookingAccepted)),
		sql.NEQ("id", exclude),
	)))
}

func (r bookings) RequestedSlots(ctx context.Context, consultantID uuid.UUID, date string) ([]string, error) {
	sel := pg.Select("time_slot").From(pg.Table(bookingsTable)).
		Where(sql.And(sql.EQ("consultant_id", consultantID), sql.EQ("date", date))).
		Distinct().
		OrderBy("time_slot")

	var out []string
	err := r.s.query(ctx, sel, func(rows *sql.Rows) error {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return err
		}
		out = append(out, slot)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("requested slots: %w", err)
	}
	return out, nil
}

func (r bookings) ExistsBetween(ctx context.Context, userID, consultantID uuid.UUID, statuses ...repo.BookingStatus) (bool, error) {
	preds := []*sql.Predicate{sql.EQ("user_id", userID), sql.EQ("consultant_id", consultantID)}
	if len(statuses) > 0 {
		vals := make([]any, len(statuses))
		for i, st := range statuses {
			vals[i] = string(st)
		}
		preds = append(preds, sql.In("status", vals...))
	}
	return r.s.exists(ctx, pg.Select("id").From(pg.Table(bookingsTable)).Where(sql.And(preds...)))
}

func (r bookings) selectAll() *sql.Selector {
	return pg.Select(bookingColumns...).From(pg.Table(bookingsTable))
}

func (r bookings) one(ctx context.Context, sel *sql.Selector) (*repo.Booking, error) {
	var out *repo.Booking
	err := r.s.query(ctx, sel, func(rows *sql.Rows) error {
		b, err := scanBooking(rows)
		out = b
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if out == nil {
		return nil, repo.ErrNotFound
	}
	return out, nil
}

func scanBooking(rows *sql.Rows) (*repo.Booking, error) {
	var (
		b      repo.Booking
		notes  stdsql.NullString
		status string
	)
	if err := rows.Scan(&b.ID, &b.UserID, &b.ConsultantID, &b.Date, &b.TimeSlot, &notes, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	b.Notes = stringPtr(notes)
	b.Status = repo.BookingStatus(status)
	return &b, nil
}
