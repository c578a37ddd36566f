package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
)

type chats struct{ v *view }

func (r chats) CreateRequest(_ context.Context, cr *repo.ChatRequest) error {
	return r.v.write("chats.create_request", func(db *state) error {
		for _, existing := range db.chats {
			if existing.BookingID == cr.BookingID {
				return repo.ErrConflict
			}
		}
		db.chats[cr.ID] = *cr
		return nil
	})
}

func (r chats) GetRequest(_ context.Context, id uuid.UUID) (*repo.ChatRequest, error) {
	var out *repo.ChatRequest
	err := r.v.read(func(db *state) error {
		cr, ok := db.chats[id]
		if !ok {
			return repo.ErrNotFound
		}
		out = &cr
		return nil
	})
	return out, err
}

func (r chats) RequestExistsForBooking(_ context.Context, bookingID uuid.UUID) (bool, error) {
	found := false
	err := r.v.read(func(db *state) error {
		for _, cr := range db.chats {
			if cr.BookingID == bookingID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r chats) UpdateRequestStatus(_ context.Context, id uuid.UUID, status repo.ChatStatus) error {
	return r.v.write("chats.update_status", func(db *state) error {
		cr, ok := db.chats[id]
		if !ok {
			return repo.ErrNotFound
		}
		cr.Status = status
		cr.UpdatedAt = now()
		db.chats[id] = cr
		return nil
	})
}

func (r chats) ListRequests(_ context.Context, participantID uuid.UUID) ([]*repo.ChatRequest, error) {
	var out []*repo.ChatRequest
	err := r.v.read(func(db *state) error {
		for _, cr := range db.chats {
			if cr.IsParty(participantID) {
				out = append(out, &cr)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *repo.ChatRequest) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return out, err
}

func (r chats) CreateMessage(_ context.Context, m *repo.Message) error {
	return r.v.write("chats.create_message", func(db *state) error {
		if _, ok := db.chats[m.ChatRequestID]; !ok {
			return repo.ErrNotFound
		}
		db.messages = append(db.messages, *m)
		return nil
	})
}

func (r chats) ListMessages(_ context.Context, requestID uuid.UUID, since *time.Time, limit int) ([]*repo.Message, error) {
	var out []*repo.Message
	err := r.v.read(func(db *state) error {
		for _, m := range db.messages {
			if m.ChatRequestID != requestID {
				continue
			}
			if since != nil && !m.SentAt.After(*since) {
				continue
			}
			out = append(out, &m)
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b *repo.Message) int { return a.SentAt.Compare(b.SentAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}
