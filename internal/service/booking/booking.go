package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/config"
	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/pkg/availability"
	"github.com/Alijeyrad/consulto_backend/pkg/constants"
	"github.com/Alijeyrad/consulto_backend/pkg/events"
)

const entityBooking = "booking"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	UserID       uuid.UUID
	ConsultantID uuid.UUID
	Date         string // YYYY-MM-DD
	TimeSlot     string // HH:MM-HH:MM
	Notes        *string
}

type CreateResult struct {
	Booking *repo.Booking `json:"booking"`
	Payment *repo.Payment `json:"payment"`
}

type TransitionRequest struct {
	BookingID uuid.UUID
	Actor     repo.Actor
	// Note is free text stored with the refund.
	Note *string
}

type RefundResult struct {
	Booking *repo.Booking `json:"booking"`
	Payment *repo.Payment `json:"payment"`
	Refund  *repo.Refund  `json:"refund"`
}

type ListRequest struct {
	Status *repo.BookingStatus
	Date   string
	Page   repo.Page
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*CreateResult, error)
	Accept(ctx context.Context, actor repo.Actor, bookingID uuid.UUID) (*repo.Booking, error)
	Reject(ctx context.Context, req TransitionRequest) (*RefundResult, error)
	Cancel(ctx context.Context, req TransitionRequest) (*RefundResult, error)
	Get(ctx context.Context, actor repo.Actor, bookingID uuid.UUID) (*repo.Booking, error)
	ListMine(ctx context.Context, actor repo.Actor, req ListRequest) ([]*repo.Booking, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type bookingService struct {
	store    repo.Store
	events   events.Publisher
	fee      int64
	currency string
	metrics  *metrics
}

func New(store repo.Store, pub events.Publisher, cfg config.BookingConfig) (Service, error) {
	fee := cfg.SessionFee
	if fee <= 0 {
		fee = constants.DefaultSessionFee
	}
	if !ExactRefund(fee) {
		return nil, fmt.Errorf("%w: %d", ErrInexactRefund, fee)
	}
	currency := strings.ToUpper(cfg.Currency)
	if currency == "" {
		currency = "USD"
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &bookingService{
		store:    store,
		events:   pub,
		fee:      fee,
		currency: currency,
		metrics:  newMetrics(),
	}, nil
}

// RefundAmount is the share of amount returned on rejection or cancellation.
// Only amounts accepted by ExactRefund come out without truncation.
func RefundAmount(amount int64) int64 {
	return amount * constants.RefundPercent / 100
}

// ExactRefund reports whether the refund of amount is a whole number of
// minor units.
func ExactRefund(amount int64) bool {
	return amount*constants.RefundPercent%100 == 0
}

func (s *bookingService) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.TimeSlot = strings.TrimSpace(req.TimeSlot)

	day, err := availability.ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if req.UserID == req.ConsultantID {
		return nil, ErrSelfBooking
	}

	now := time.Now().UTC()
	b := &repo.Booking{
		ID:           uuid.Must(uuid.NewV7()),
		UserID:       req.UserID,
		ConsultantID: req.ConsultantID,
		Date:         req.Date,
		TimeSlot:     req.TimeSlot,
		Notes:        req.Notes,
		Status:       repo.BookingPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p := &repo.Payment{
		ID:        uuid.Must(uuid.NewV7()),
		BookingID: b.ID,
		Amount:    s.fee,
		Currency:  s.currency,
		Status:    repo.PaymentPaid,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.InTx(ctx, func(tx repo.Store) error {
		// Serialises concurrent requests against the same consultant.
		if err := tx.Users().LockConsultant(ctx, req.ConsultantID); err != nil {
			if repo.IsNotFound(err) {
				return ErrConsultantNotFound
			}
			return fmt.Errorf("lock consultant: %w", err)
		}

		consultant, err := tx.Users().Get(ctx, req.ConsultantID)
		if err != nil {
			if repo.IsNotFound(err) {
				return ErrConsultantNotFound
			}
			return fmt.Errorf("get consultant: %w", err)
		}
		c, ok := consultant.AsConsultant()
		if !ok || !c.Profile.IsApproved {
			return ErrConsultantNotFound
		}

		if !c.Profile.Availability.Contains(day, req.TimeSlot) {
			return ErrOutsideAvailability
		}

		taken, err := tx.Bookings().SlotRequested(ctx, req.ConsultantID, req.Date, req.TimeSlot)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}

		held, err := tx.Bookings().UserHoldsSlot(ctx, req.UserID, req.Date, req.TimeSlot)
		if err != nil {
			return fmt.Errorf("check user slot: %w", err)
		}
		if held {
			return ErrUserDoubleBooked
		}

		if err := tx.Bookings().Create(ctx, b); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		if err := tx.Payments().Create(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		return tx.AuditLogs().Create(ctx, repo.NewAuditLog(req.UserID, "booking.created", entityBooking, b.ID, map[string]any{
			"consultant_id": req.ConsultantID.String(),
			"date":          req.Date,
			"time_slot":     req.TimeSlot,
			"payment_id":    p.ID.String(),
			"amount":        p.Amount,
		}))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.created(ctx)
	slog.Info("booking created", "booking_id", b.ID, "consultant_id", b.ConsultantID, "date", b.Date, "slot", b.TimeSlot)
	s.publish(ctx, b, "created", req.UserID)

	return &CreateResult{Booking: b, Payment: p}, nil
}

func (s *bookingService) Accept(ctx context.Context, actor repo.Actor, bookingID uuid.UUID) (*repo.Booking, error) {
	var b *repo.Booking
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		var err error
		b, err = s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.ConsultantID != actor.ID {
			return ErrNotBookingParty
		}
		if !b.Status.CanTransitionTo(repo.BookingAccepted) {
			return ErrInvalidTransition
		}
		if err := s.ensureSlotFree(ctx, tx, b); err != nil {
			return err
		}

		if err := tx.Bookings().UpdateStatus(ctx, b.ID, repo.BookingAccepted); err != nil {
			if repo.IsConflict(err) {
				return ErrSlotAlreadyAccepted
			}
			return fmt.Errorf("accept booking: %w", err)
		}
		b.Status = repo.BookingAccepted
		b.UpdatedAt = time.Now().UTC()

		return tx.AuditLogs().Create(ctx, repo.NewAuditLog(actor.ID, "booking.accepted", entityBooking, b.ID, nil))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.transitioned(ctx, repo.BookingAccepted)
	slog.Info("booking accepted", "booking_id", b.ID, "consultant_id", actor.ID)
	s.publish(ctx, b, "accepted", actor.ID)
	return b, nil
}

func (s *bookingService) Reject(ctx context.Context, req TransitionRequest) (*RefundResult, error) {
	return s.refundAndClose(ctx, req, repo.BookingRejected)
}

func (s *bookingService) Cancel(ctx context.Context, req TransitionRequest) (*RefundResult, error) {
	return s.refundAndClose(ctx, req, repo.BookingCanceled)
}

// refundAndClose moves the booking to a terminal status and refunds its
// payment in one transaction.
func (s *bookingService) refundAndClose(ctx context.Context, req TransitionRequest, to repo.BookingStatus) (*RefundResult, error) {
	reason := repo.RefundCancellation
	if to == repo.BookingRejected {
		reason = repo.RefundRejection
	}

	var out RefundResult
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		b, err := s.lockBooking(ctx, tx, req.BookingID)
		if err != nil {
			return err
		}

		switch to {
		case repo.BookingRejected:
			if b.ConsultantID != req.Actor.ID {
				return ErrNotBookingParty
			}
			if err := s.ensureSlotFree(ctx, tx, b); err != nil {
				return err
			}
		case repo.BookingCanceled:
			if !b.IsParty(req.Actor.ID) && !req.Actor.IsAdmin() {
				return ErrNotBookingParty
			}
		}

		if !b.Status.CanTransitionTo(to) {
			return ErrInvalidTransition
		}
		if err := tx.Bookings().UpdateStatus(ctx, b.ID, to); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		b.Status = to
		b.UpdatedAt = time.Now().UTC()

		p, err := tx.Payments().GetByBooking(ctx, b.ID)
		if err != nil {
			if repo.IsNotFound(err) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("get payment: %w", err)
		}
		if p.Status != repo.PaymentPaid {
			return ErrAlreadyRefunded
		}

		rf := &repo.Refund{
			ID:           uuid.Must(uuid.NewV7()),
			PaymentID:    p.ID,
			RefundAmount: RefundAmount(p.Amount),
			Reason:       reason,
			Note:         req.Note,
			RefundedAt:   time.Now().UTC(),
		}
		if err := tx.Refunds().Create(ctx, rf); err != nil {
			return fmt.Errorf("create refund: %w", err)
		}
		if err := tx.Payments().UpdateStatus(ctx, p.ID, repo.PaymentRefunded); err != nil {
			return fmt.Errorf("mark payment refunded: %w", err)
		}
		p.Status = repo.PaymentRefunded
		p.UpdatedAt = rf.RefundedAt

		out = RefundResult{Booking: b, Payment: p, Refund: rf}

		return tx.AuditLogs().Create(ctx, repo.NewAuditLog(req.Actor.ID, "booking."+string(to), entityBooking, b.ID, map[string]any{
			"refund_id":     rf.ID.String(),
			"refund_amount": rf.RefundAmount,
			"reason":        string(reason),
		}))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.transitioned(ctx, to)
	s.metrics.refunded(ctx, out.Refund.RefundAmount)
	slog.Info("booking closed with refund",
		"booking_id", out.Booking.ID,
		"status", to,
		"refund_amount", out.Refund.RefundAmount,
	)
	s.publish(ctx, out.Booking, string(to), req.Actor.ID)
	return &out, nil
}

func (s *bookingService) Get(ctx context.Context, actor repo.Actor, bookingID uuid.UUID) (*repo.Booking, error) {
	b, err := s.store.Bookings().Get(ctx, bookingID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if !b.IsParty(actor.ID) && !actor.IsAdmin() {
		// Hide existence from outsiders.
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (s *bookingService) ListMine(ctx context.Context, actor repo.Actor, req ListRequest) ([]*repo.Booking, error) {
	f := repo.BookingFilter{Status: req.Status, Date: req.Date, Page: req.Page}
	if actor.Role == repo.RoleConsultant {
		f.ConsultantID = &actor.ID
	} else {
		f.UserID = &actor.ID
	}
	list, err := s.store.Bookings().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return list, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *bookingService) lockBooking(ctx context.Context, tx repo.Store, id uuid.UUID) (*repo.Booking, error) {
	b, err := tx.Bookings().GetForUpdate(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// ensureSlotFree fails when a different booking already holds the slot as accepted.
func (s *bookingService) ensureSlotFree(ctx context.Context, tx repo.Store, b *repo.Booking) error {
	taken, err := tx.Bookings().AcceptedElsewhere(ctx, b.ConsultantID, b.Date, b.TimeSlot, b.ID)
	if err != nil {
		return fmt.Errorf("check accepted slot: %w", err)
	}
	if taken {
		return ErrSlotAlreadyAccepted
	}
	return nil
}

func (s *bookingService) publish(ctx context.Context, b *repo.Booking, action string, actorID uuid.UUID) {
	events.PublishLogged(ctx, s.events, events.Event{
		Entity:  entityBooking,
		Action:  action,
		ID:      b.ID,
		ActorID: actorID,
		Data: map[string]any{
			"user_id":       b.UserID.String(),
			"consultant_id": b.ConsultantID.String(),
			"date":          b.Date,
			"time_slot":     b.TimeSlot,
		},
	})
}

// IsConflict reports whether err is one of the booking conflict errors.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSlotTaken) ||
		errors.Is(err, ErrUserDoubleBooked) ||
		errors.Is(err, ErrSlotAlreadyAccepted) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrAlreadyRefunded)
}
