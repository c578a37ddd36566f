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

const (
	paymentsTable = "payments"
	refundsTable  = "refunds"
)

type payments struct{ s *Store }

func (r payments) Create(ctx context.Context, p *repo.Payment) error {
	_, err := r.s.exec(ctx, pg.Insert(paymentsTable).
		Columns("id", "booking_id", "amount", "currency", "status", "created_at", "updated_at").
		Values(p.ID, p.BookingID, p.Amount, p.Currency, string(p.Status), p.CreatedAt, p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r payments) GetByBooking(ctx context.Context, bookingID uuid.UUID) (*repo.Payment, error) {
	sel := pg.Select("id", "booking_id", "amount", "currency", "status", "created_at", "updated_at").
		From(pg.Table(paymentsTable)).
		Where(sql.EQ("booking_id", bookingID))
	if r.s.tx != nil {
		sel = sel.ForUpdate()
	}

	var out *repo.Payment
	err := r.s.query(ctx, sel, func(rows *sql.Rows) error {
		var (
			p      repo.Payment
			status string
		)
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Amount, &p.Currency, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return fmt.Errorf("scan payment: %w", err)
		}
		p.Status = repo.PaymentStatus(status)
		out = &p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if out == nil {
		return nil, repo.ErrNotFound
	}
	return out, nil
}

func (r payments) UpdateStatus(ctx context.Context, id uuid.UUID, status repo.PaymentStatus) error {
	n, err := r.s.exec(ctx, pg.Update(paymentsTable).
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(sql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type refunds struct{ s *Store }

func (r refunds) Create(ctx context.Context, rf *repo.Refund) error {
	_, err := r.s.exec(ctx, pg.Insert(refundsTable).
		Columns("id", "payment_id", "refund_amount", "reason", "note", "refunded_at").
		Values(rf.ID, rf.PaymentID, rf.RefundAmount, string(rf.Reason), nullString(rf.Note), rf.RefundedAt))
	if err != nil {
		return fmt.Errorf("insert refund: %w", err)
	}
	return nil
}

func (r refunds) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*repo.Refund, error) {
	sel := pg.Select("id", "payment_id", "refund_amount", "reason", "note", "refunded_at").
		From(pg.Table(refundsTable)).
		Where(sql.EQ("payment_id", paymentID)).
		OrderBy("refunded_at")

	var out []*repo.Refund
	err := r.s.query(ctx, sel, func(rows *sql.Rows) error {
		var (
			rf     repo.Refund
			reason string
			note   stdsql.NullString
		)
		if err := rows.Scan(&rf.ID, &rf.PaymentID, &rf.RefundAmount, &reason, &note, &rf.RefundedAt); err != nil {
			return fmt.Errorf("scan refund: %w", err)
		}
		rf.Reason = repo.RefundReason(reason)
		rf.Note = stringPtr(note)
		out = append(out, &rf)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}
	return out, nil
}
