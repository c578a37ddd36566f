package memstore

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
)

type bookings struct{ v *view }

func (r bookings) Create(_ context.Context, b *repo.Booking) error {
	return r.v.write("bookings.create", func(db *state) error {
		if _, ok := db.bookings[b.ID]; ok {
			return repo.ErrConflict
		}
		db.bookings[b.ID] = *b
		return nil
	})
}

func (r bookings) Get(_ context.Context, id uuid.UUID) (*repo.Booking, error) {
	var out *repo.Booking
	err := r.v.read(func(db *state) error {
		b, ok := db.bookings[id]
		if !ok {
			return repo.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r bookings) GetForUpdate(ctx context.Context, id uuid.UUID) (*repo.Booking, error) {
	return r.Get(ctx, id)
}

func (r bookings) UpdateStatus(_ context.Context, id uuid.UUID, status repo.BookingStatus) error {
	return r.v.write("bookings.update_status", func(db *state) error {
		b, ok := db.bookings[id]
		if !ok {
			return repo.ErrNotFound
		}
		// Mirrors the partial unique index on accepted bookings.
		if status == repo.BookingAccepted {
			for _, other := range db.bookings {
				if other.ID != id && other.Status == repo.BookingAccepted && sameSlot(other, b) {
					return repo.ErrConflict
				}
			}
		}
		b.Status = status
		b.UpdatedAt = now()
		db.bookings[id] = b
		return nil
	})
}

func (r bookings) List(_ context.Context, f repo.BookingFilter) ([]*repo.Booking, error) {
	var out []*repo.Booking
	err := r.v.read(func(db *state) error {
		for _, b := range db.bookings {
			if f.UserID != nil && b.UserID != *f.UserID {
				continue
			}
			if f.ConsultantID != nil && b.ConsultantID != *f.ConsultantID {
				continue
			}
			if f.Participant != nil && !b.IsParty(*f.Participant) {
				continue
			}
			if f.Status != nil && b.Status != *f.Status {
				continue
			}
			if f.Date != "" && b.Date != f.Date {
				continue
			}
			out = append(out, &b)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *repo.Booking) int {
		// newest first
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return paginate(out, f.Page), err
}

func (r bookings) SlotRequested(_ context.Context, consultantID uuid.UUID, date, slot string) (bool, error) {
	return r.any(func(b repo.Booking) bool {
		return b.ConsultantID == consultantID && b.Date == date && b.TimeSlot == slot
	})
}

func (r bookings) UserHoldsSlot(_ context.Context, userID uuid.UUID, date, slot string) (bool, error) {
	return r.any(func(b repo.Booking) bool {
		return b.UserID == userID && b.Date == date && b.TimeSlot == slot && b.Status.Live()
	})
}

func (r bookings) AcceptedElsewhere(_ context.Context, consultantID uuid.UUID, date, slot string, exclude uuid.UUID) (bool, error) {
	return r.any(func(b repo.Booking) bool {
		return b.ID != exclude && b.ConsultantID == consultantID && b.Date == date &&
			b.TimeSlot == slot && b.Status == repo.BookingAccepted
	})
}

func (r bookings) RequestedSlots(_ context.Context, consultantID uuid.UUID, date string) ([]string, error) {
	var out []string
	err := r.v.read(func(db *state) error {
		for _, b := range db.bookings {
			if b.ConsultantID == consultantID && b.Date == date && !slices.Contains(out, b.TimeSlot) {
				out = append(out, b.TimeSlot)
			}
		}
		return nil
	})
	slices.Sort(out)
	return out, err
}

func (r bookings) ExistsBetween(_ context.Context, userID, consultantID uuid.UUID, statuses ...repo.BookingStatus) (bool, error) {
	return r.any(func(b repo.Booking) bool {
		if b.UserID != userID || b.ConsultantID != consultantID {
			return false
		}
		return len(statuses) == 0 || slices.Contains(statuses, b.Status)
	})
}

func (r bookings) any(match func(repo.Booking) bool) (bool, error) {
	found := false
	err := r.v.read(func(db *state) error {
		for _, b := range db.bookings {
			if match(b) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func sameSlot(a, b repo.Booking) bool {
	return a.ConsultantID == b.ConsultantID && a.Date == b.Date && a.TimeSlot == b.TimeSlot
}
