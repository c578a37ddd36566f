package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
)

func now() time.Time { return time.Now().UTC() }

type payments struct{ v *view }

func (r payments) Create(_ context.Context, p *repo.Payment) error {
	return r.v.write("payments.create", func(db *state) error {
		for _, existing := range db.payments {
			if existing.BookingID == p.BookingID {
				return repo.ErrConflict
			}
		}
		db.payments[p.ID] = *p
		return nil
	})
}

func (r payments) GetByBooking(_ context.Context, bookingID uuid.UUID) (*repo.Payment, error) {
	var out *repo.Payment
	err := r.v.read(func(db *state) error {
		for _, p := range db.payments {
			if p.BookingID == bookingID {
				out = &p
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (r payments) UpdateStatus(_ context.Context, id uuid.UUID, status repo.PaymentStatus) error {
	return r.v.write("payments.update_status", func(db *state) error {
		p, ok := db.payments[id]
		if !ok {
			return repo.ErrNotFound
		}
		p.Status = status
		p.UpdatedAt = now()
		db.payments[id] = p
		return nil
	})
}

type refunds struct{ v *view }

func (r refunds) Create(_ context.Context, rf *repo.Refund) error {
	return r.v.write("refunds.create", func(db *state) error {
		db.refunds = append(db.refunds, *rf)
		return nil
	})
}

func (r refunds) ListByPayment(_ context.Context, paymentID uuid.UUID) ([]*repo.Refund, error) {
	var out []*repo.Refund
	err := r.v.read(func(db *state) error {
		for _, rf := range db.refunds {
			if rf.PaymentID == paymentID {
				out = append(out, &rf)
			}
		}
		return nil
	})
	return out, err
}
