// Package memstore is an in-process repo.Store. Transactions run against a
// copy of the data that replaces the live copy only on commit.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
)

type state struct {
	users    map[uuid.UUID]repo.User
	profiles map[uuid.UUID]repo.ConsultantProfile
	bookings map[uuid.UUID]repo.Booking
	payments map[uuid.UUID]repo.Payment
	chats    map[uuid.UUID]repo.ChatRequest
	refunds  []repo.Refund
	messages []repo.Message
	reviews  []repo.Review
	records  []repo.HealthRecord
	audit    []repo.AuditLog
}

func newState() *state {
	return &state{
		users:    map[uuid.UUID]repo.User{},
		profiles: map[uuid.UUID]repo.ConsultantProfile{},
		bookings: map[uuid.UUID]repo.Booking{},
		payments: map[uuid.UUID]repo.Payment{},
		chats:    map[uuid.UUID]repo.ChatRequest{},
	}
}

func (s *state) clone() *state {
	return &state{
		users:    maps.Clone(s.users),
		profiles: maps.Clone(s.profiles),
		bookings: maps.Clone(s.bookings),
		payments: maps.Clone(s.payments),
		chats:    maps.Clone(s.chats),
		refunds:  slices.Clone(s.refunds),
		messages: slices.Clone(s.messages),
		reviews:  slices.Clone(s.reviews),
		records:  slices.Clone(s.records),
		audit:    slices.Clone(s.audit),
	}
}

type Store struct {
	mu sync.Mutex
	db *state

	// FailOn, when set, is called with the operation name ("bookings.create",
	// "payments.update_status", ...) before each write. A non-nil result is
	// returned in place of performing the write.
	FailOn func(op string) error
}

var _ repo.Store = (*Store)(nil)

func New() *Store {
	return &Store{db: newState()}
}

func (s *Store) root() *view { return &view{s: s} }

func (s *Store) Users() repo.UserRepository                 { return users{s.root()} }
func (s *Store) Bookings() repo.BookingRepository           { return bookings{s.root()} }
func (s *Store) Payments() repo.PaymentRepository           { return payments{s.root()} }
func (s *Store) Refunds() repo.RefundRepository             { return refunds{s.root()} }
func (s *Store) Chats() repo.ChatRepository                 { return chats{s.root()} }
func (s *Store) Reviews() repo.ReviewRepository             { return reviews{s.root()} }
func (s *Store) HealthRecords() repo.HealthRecordRepository { return records{s.root()} }
func (s *Store) AuditLogs() repo.AuditLogRepository         { return auditLogs{s.root()} }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) InTx(ctx context.Context, fn func(tx repo.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.db.clone()
	if err := fn(&view{s: s, tx: work}); err != nil {
		return err
	}
	s.db = work
	return nil
}

// view is either the root (tx == nil, locks per call) or bound to an open
// transaction whose lock is already held.
type view struct {
	s  *Store
	tx *state
}

func (v *view) read(fn func(db *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.db)
}

func (v *view) write(op string, fn func(db *state) error) error {
	return v.read(func(db *state) error {
		if v.s.FailOn != nil {
			if err := v.s.FailOn(op); err != nil {
				return err
			}
		}
		return fn(db)
	})
}

func (v *view) Users() repo.UserRepository                 { return users{v} }
func (v *view) Bookings() repo.BookingRepository           { return bookings{v} }
func (v *view) Payments() repo.PaymentRepository           { return payments{v} }
func (v *view) Refunds() repo.RefundRepository             { return refunds{v} }
func (v *view) Chats() repo.ChatRepository                 { return chats{v} }
func (v *view) Reviews() repo.ReviewRepository             { return reviews{v} }
func (v *view) HealthRecords() repo.HealthRecordRepository { return records{v} }
func (v *view) AuditLogs() repo.AuditLogRepository         { return auditLogs{v} }

func (v *view) Ping(context.Context) error { return nil }

func (v *view) InTx(ctx context.Context, fn func(tx repo.Store) error) error {
	if v.tx != nil {
		return fn(v)
	}
	return v.s.InTx(ctx, fn)
}

func paginate[T any](items []T, p repo.Page) []T {
	p = p.Normalize()
	off := p.Offset()
	if off >= len(items) {
		return []T{}
	}
	end := off + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[off:end]
}
