package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/pkg/availability"
	"github.com/Alijeyrad/consulto_backend/pkg/events"
)

const entityConsultant = "consultant"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ApproveRequest struct {
	AdminID      uuid.UUID
	ConsultantID uuid.UUID
	Approved     bool
}

type AuditQuery struct {
	ActorID  *uuid.UUID
	Entity   string
	EntityID *uuid.UUID
	Since    *time.Time
	Page     repo.Page
}

type BookingQuery struct {
	UserID       *uuid.UUID
	ConsultantID *uuid.UUID
	Status       string
	Date         string
	Page         repo.Page
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Service is the back-office surface. Callers are expected to be admins;
// the HTTP layer enforces that.
type Service interface {
	ListPendingConsultants(ctx context.Context, page repo.Page) ([]*repo.User, error)
	ApproveConsultant(ctx context.Context, req ApproveRequest) (*repo.User, error)
	ListAuditLog(ctx context.Context, q AuditQuery) ([]*repo.AuditLog, error)
	ListBookings(ctx context.Context, q BookingQuery) ([]*repo.Booking, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type adminService struct {
	store  repo.Store
	events events.Publisher
}

func New(store repo.Store, pub events.Publisher) Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &adminService{store: store, events: pub}
}

func (s *adminService) ListPendingConsultants(ctx context.Context, page repo.Page) ([]*repo.User, error) {
	approved := false
	list, err := s.store.Users().ListConsultants(ctx, repo.ConsultantFilter{Approved: &approved, Page: page.Normalize()})
	if err != nil {
		return nil, fmt.Errorf("list pending consultants: %w", err)
	}
	return list, nil
}

func (s *adminService) ApproveConsultant(ctx context.Context, req ApproveRequest) (*repo.User, error) {
	var u *repo.User
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		var err error
		u, err = tx.Users().Get(ctx, req.ConsultantID)
		if err != nil {
			if repo.IsNotFound(err) {
				return ErrConsultantNotFound
			}
			return fmt.Errorf("get consultant: %w", err)
		}
		c, ok := u.AsConsultant()
		if !ok {
			return ErrConsultantNotFound
		}

		// Consultants registered before profiles existed have no row yet.
		if u.Consultant == nil {
			p := *c.Profile
			if p.Availability == nil {
				p.Availability = availability.Schedule{}
			}
			if err := tx.Users().SaveConsultantProfile(ctx, u.ID, &p); err != nil {
				return fmt.Errorf("create profile: %w", err)
			}
		}
		if err := tx.Users().SetApproved(ctx, u.ID, req.Approved); err != nil {
			return fmt.Errorf("set approved: %w", err)
		}

		if u, err = tx.Users().Get(ctx, u.ID); err != nil {
			return fmt.Errorf("reload consultant: %w", err)
		}
		return tx.AuditLogs().Create(ctx, repo.NewAuditLog(req.AdminID, "consultant.approval_changed", entityConsultant, u.ID,
			map[string]any{"approved": req.Approved}))
	})
	if err != nil {
		return nil, err
	}

	action := "approved"
	if !req.Approved {
		action = "suspended"
	}
	slog.Info("consultant approval changed", "consultant_id", u.ID, "approved", req.Approved, "admin_id", req.AdminID)
	events.PublishLogged(ctx, s.events, events.Event{
		Entity:  entityConsultant,
		Action:  action,
		ID:      u.ID,
		ActorID: req.AdminID,
		Data:    map[string]any{"email": u.Email, "name": u.Name},
	})
	return u, nil
}

func (s *adminService) ListAuditLog(ctx context.Context, q AuditQuery) ([]*repo.AuditLog, error) {
	list, err := s.store.AuditLogs().List(ctx, repo.AuditFilter{
		ActorID:  q.ActorID,
		Entity:   q.Entity,
		EntityID: q.EntityID,
		Since:    q.Since,
		Page:     q.Page.Normalize(),
	})
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	return list, nil
}

func (s *adminService) ListBookings(ctx context.Context, q BookingQuery) ([]*repo.Booking, error) {
	f := repo.BookingFilter{
		UserID:       q.UserID,
		ConsultantID: q.ConsultantID,
		Page:         q.Page.Normalize(),
	}
	if q.Status != "" {
		st := repo.BookingStatus(q.Status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, q.Status)
		}
		f.Status = &st
	}
	if q.Date != "" {
		if _, err := availability.ParseDate(q.Date); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		f.Date = q.Date
	}

	list, err := s.store.Bookings().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return list, nil
}
