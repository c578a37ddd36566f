// Package repo defines the persisted entities and the storage interface the
// services depend on. Implementations live in sqlstore (Postgres) and
// memstore (in-process, used by tests).
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with existing data")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// Store groups the entity repositories. A Store handed to the InTx callback
// is bound to the open transaction; calling InTx on it again reuses that
// transaction.
type Store interface {
	Users() UserRepository
	Bookings() BookingRepository
	Payments() PaymentRepository
	Refunds() RefundRepository
	Chats() ChatRepository
	Reviews() ReviewRepository
	HealthRecords() HealthRecordRepository
	AuditLogs() AuditLogRepository

	// InTx commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateIdentity(ctx context.Context, u *User) error
	// SaveConsultantProfile writes the profile row for the user. Approval is
	// set on insert only; afterwards it changes through SetApproved.
	SaveConsultantProfile(ctx context.Context, userID uuid.UUID, p *ConsultantProfile) error
	SetApproved(ctx context.Context, userID uuid.UUID, approved bool) error
	ListConsultants(ctx context.Context, f ConsultantFilter) ([]*User, error)
	// LockConsultant takes a row lock on the consultant for the rest of the
	// surrounding transaction.
	LockConsultant(ctx context.Context, id uuid.UUID) error
}

type BookingRepository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status BookingStatus) error
	List(ctx context.Context, f BookingFilter) ([]*Booking, error)

	// SlotRequested reports whether any booking, of any status, exists for the
	// consultant at date and slot.
	SlotRequested(ctx context.Context, consultantID uuid.UUID, date, slot string) (bool, error)
	// UserHoldsSlot reports whether the user has a pending or accepted booking
	// at date and slot with any consultant.
	UserHoldsSlot(ctx context.Context, userID uuid.UUID, date, slot string) (bool, error)
	// AcceptedElsewhere reports whether a booking other than exclude is
	// accepted for the consultant at date and slot.
	AcceptedElsewhere(ctx context.Context, consultantID uuid.UUID, date, slot string, exclude uuid.UUID) (bool, error)
	// RequestedSlots lists every slot label with a booking on the date.
	RequestedSlots(ctx context.Context, consultantID uuid.UUID, date string) ([]string, error)
	// ExistsBetween reports whether the pair has a booking in one of statuses,
	// or in any status when none are given.
	ExistsBetween(ctx context.Context, userID, consultantID uuid.UUID, statuses ...BookingStatus) (bool, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error
}

type RefundRepository interface {
	Create(ctx context.Context, r *Refund) error
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*Refund, error)
}

type ChatRepository interface {
	CreateRequest(ctx context.Context, r *ChatRequest) error
	GetRequest(ctx context.Context, id uuid.UUID) (*ChatRequest, error)
	RequestExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, status ChatStatus) error
	ListRequests(ctx context.Context, participantID uuid.UUID) ([]*ChatRequest, error)

	CreateMessage(ctx context.Context, m *Message) error
	// ListMessages returns messages oldest first, optionally only those sent
	// strictly after since.
	ListMessages(ctx context.Context, requestID uuid.UUID, since *time.Time, limit int) ([]*Message, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, r *Review) error
	ListByConsultant(ctx context.Context, consultantID uuid.UUID, page Page) ([]*Review, error)
	Stats(ctx context.Context, consultantID uuid.UUID) (ReviewStats, error)
}

type HealthRecordRepository interface {
	Create(ctx context.Context, r *HealthRecord) error
	ListByUser(ctx context.Context, userID uuid.UUID, page Page) ([]*HealthRecord, error)
}

type AuditLogRepository interface {
	Create(ctx context.Context, e *AuditLog) error
	List(ctx context.Context, f AuditFilter) ([]*AuditLog, error)
}

// Page is a one-based page request.
type Page struct {
	Page    int
	PerPage int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > 100 {
		p.PerPage = 20
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PerPage
}

type ConsultantFilter struct {
	// Approved filters on the approval flag when set.
	Approved  *bool
	Specialty string
	Page      Page
}

type BookingFilter struct {
	UserID       *uuid.UUID
	ConsultantID *uuid.UUID
	// Participant matches bookings where the id is either party.
	Participant *uuid.UUID
	Status      *BookingStatus
	Date        string
	Page        Page
}

type AuditFilter struct {
	ActorID  *uuid.UUID
	Entity   string
	EntityID *uuid.UUID
	Since    *time.Time
	Page     Page
}
