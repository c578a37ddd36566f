package repo

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPaid || s == PaymentRefunded
}

// Payment amounts are minor currency units.
type Payment struct {
	ID        uuid.UUID     `json:"id"`
	BookingID uuid.UUID     `json:"booking_id"`
	Amount    int64         `json:"amount"`
	Currency  string        `json:"currency"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type RefundReason string

const (
	RefundRejection    RefundReason = "rejection"
	RefundCancellation RefundReason = "cancellation"
)

// Refund is append-only.
type Refund struct {
	ID           uuid.UUID    `json:"id"`
	PaymentID    uuid.UUID    `json:"payment_id"`
	RefundAmount int64        `json:"refund_amount"`
	Reason       RefundReason `json:"reason"`
	Note         *string      `json:"note,omitempty"`
	RefundedAt   time.Time    `json:"refunded_at"`
}
