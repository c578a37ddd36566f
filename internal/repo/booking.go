package repo

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingAccepted BookingStatus = "accepted"
	BookingRejected BookingStatus = "rejected"
	BookingCanceled BookingStatus = "canceled"
)

var BookingStatuses = []BookingStatus{BookingPending, BookingAccepted, BookingRejected, BookingCanceled}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingAccepted, BookingRejected, BookingCanceled:
		return true
	}
	return false
}

// Live bookings still hold their slot for the requesting user.
func (s BookingStatus) Live() bool {
	return s == BookingPending || s == BookingAccepted
}

// CanTransitionTo lists the legal lifecycle moves. Rejected and canceled are
// terminal, which also keeps a payment from being refunded twice.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingPending:
		return next == BookingAccepted || next == BookingRejected || next == BookingCanceled
	case BookingAccepted:
		return next == BookingCanceled
	case BookingRejected, BookingCanceled:
		return false
	}
	return false
}

type Booking struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	ConsultantID uuid.UUID     `json:"consultant_id"`
	Date         string        `json:"date"`
	TimeSlot     string        `json:"time_slot"`
	Notes        *string       `json:"notes,omitempty"`
	Status       BookingStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IsParty reports whether id is the booking's user or consultant.
func (b *Booking) IsParty(id uuid.UUID) bool {
	return b.UserID == id || b.ConsultantID == id
}
