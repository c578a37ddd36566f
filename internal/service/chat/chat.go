package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/pkg/events"
)

const (
	entityChat = "chat"

	MaxMessageLength = 4000
	maxPollBatch     = 200
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type OpenRequest struct {
	UserID         uuid.UUID
	ConsultantID   uuid.UUID
	BookingID      uuid.UUID
	InitialMessage string
}

type OpenResult struct {
	Request *repo.ChatRequest `json:"chat_request"`
	Message *repo.Message     `json:"message"`
}

type RespondRequest struct {
	ConsultantID uuid.UUID
	RequestID    uuid.UUID
	Accept       bool
}

type PostRequest struct {
	RequestID uuid.UUID
	SenderID  uuid.UUID
	Text      string
}

type ListMessagesRequest struct {
	RequestID uuid.UUID
	ReaderID  uuid.UUID
	// Since limits the result to messages sent strictly after it.
	Since *time.Time
	Limit int
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Open(ctx context.Context, req OpenRequest) (*OpenResult, error)
	Respond(ctx context.Context, req RespondRequest) (*repo.ChatRequest, error)
	PostMessage(ctx context.Context, req PostRequest) (*repo.Message, error)
	ListMessages(ctx context.Context, req ListMessagesRequest) ([]*repo.Message, error)
	ListRequests(ctx context.Context, callerID uuid.UUID) ([]*repo.ChatRequest, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type chatService struct {
	store  repo.Store
	events events.Publisher
}

func New(store repo.Store, pub events.Publisher) Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &chatService{store: store, events: pub}
}

func (s *chatService) Open(ctx context.Context, req OpenRequest) (*OpenResult, error) {
	text, err := cleanText(req.InitialMessage)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cr := &repo.ChatRequest{
		ID:           uuid.Must(uuid.NewV7()),
		UserID:       req.UserID,
		ConsultantID: req.ConsultantID,
		BookingID:    req.BookingID,
		Status:       repo.ChatPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	msg := &repo.Message{
		ID:            uuid.Must(uuid.NewV7()),
		ChatRequestID: cr.ID,
		SenderID:      req.UserID,
		Text:          text,
		SentAt:        now,
	}

	err = s.store.InTx(ctx, func(tx repo.Store) error {
		b, err := tx.Bookings().Get(ctx, req.BookingID)
		if err != nil {
			if repo.IsNotFound(err) {
				return ErrChatNotAuthorized
			}
			return fmt.Errorf("get booking: %w", err)
		}
		if b.UserID != req.UserID || b.ConsultantID != req.ConsultantID {
			return ErrChatNotAuthorized
		}

		p, err := tx.Payments().GetByBooking(ctx, b.ID)
		if err != nil {
			if repo.IsNotFound(err) {
				return ErrChatNotAuthorized
			}
			return fmt.Errorf("get payment: %w", err)
		}
		if p.Status != repo.PaymentPaid {
			return ErrChatNotAuthorized
		}

		exists, err := tx.Chats().RequestExistsForBooking(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("check chat request: %w", err)
		}
		if exists {
			return ErrChatExists
		}

		if err := tx.Chats().CreateRequest(ctx, cr); err != nil {
			if repo.IsConflict(err) {
				return ErrChatExists
			}
			return fmt.Errorf("create chat request: %w", err)
		}
		if err := tx.Chats().CreateMessage(ctx, msg); err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("chat request opened", "chat_request_id", cr.ID, "booking_id", cr.BookingID)
	s.publish(ctx, cr, "opened", req.UserID)
	return &OpenResult{Request: cr, Message: msg}, nil
}

func (s *chatService) Respond(ctx context.Context, req RespondRequest) (*repo.ChatRequest, error) {
	next := repo.ChatRejected
	if req.Accept {
		next = repo.ChatAccepted
	}

	var cr *repo.ChatRequest
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		var err error
		cr, err = tx.Chats().GetRequest(ctx, req.RequestID)
		if err != nil {
			if repo.IsNotFound(err) {
				return ErrChatNotFound
			}
			return fmt.Errorf("get chat request: %w", err)
		}
		if cr.ConsultantID != req.ConsultantID {
			return ErrChatNotAuthorized
		}
		if !cr.Status.CanTransitionTo(next) {
			return ErrChatAlreadyResolved
		}
		if err := tx.Chats().UpdateRequestStatus(ctx, cr.ID, next); err != nil {
			return fmt.Errorf("update chat request: %w", err)
		}
		cr.Status = next
		cr.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("chat request answered", "chat_request_id", cr.ID, "status", cr.Status)
	s.publish(ctx, cr, "responded", req.ConsultantID)
	return cr, nil
}

func (s *chatService) PostMessage(ctx context.Context, req PostRequest) (*repo.Message, error) {
	cr, err := s.store.Chats().GetRequest(ctx, req.RequestID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("get chat request: %w", err)
	}
	// Status first: the outcome for an unaccepted chat does not depend on who sends.
	if cr.Status != repo.ChatAccepted {
		return nil, ErrChatNotAccepted
	}
	if !cr.IsParty(req.SenderID) {
		return nil, ErrChatNotAuthorized
	}
	text, err := cleanText(req.Text)
	if err != nil {
		return nil, err
	}

	m := &repo.Message{
		ID:            uuid.Must(uuid.NewV7()),
		ChatRequestID: cr.ID,
		SenderID:      req.SenderID,
		Text:          text,
		SentAt:        time.Now().UTC(),
	}
	if err := s.store.Chats().CreateMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}

func (s *chatService) ListMessages(ctx context.Context, req ListMessagesRequest) ([]*repo.Message, error) {
	cr, err := s.store.Chats().GetRequest(ctx, req.RequestID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("get chat request: %w", err)
	}
	if !cr.IsParty(req.ReaderID) {
		return nil, ErrChatNotAuthorized
	}

	limit := req.Limit
	if limit <= 0 || limit > maxPollBatch {
		limit = maxPollBatch
	}
	msgs, err := s.store.Chats().ListMessages(ctx, cr.ID, req.Since, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

func (s *chatService) ListRequests(ctx context.Context, callerID uuid.UUID) ([]*repo.ChatRequest, error) {
	list, err := s.store.Chats().ListRequests(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list chat requests: %w", err)
	}
	return list, nil
}

func (s *chatService) publish(ctx context.Context, cr *repo.ChatRequest, action string, actorID uuid.UUID) {
	events.PublishLogged(ctx, s.events, events.Event{
		Entity:  entityChat,
		Action:  action,
		ID:      cr.ID,
		ActorID: actorID,
		Data: map[string]any{
			"user_id":       cr.UserID.String(),
			"consultant_id": cr.ConsultantID.String(),
			"booking_id":    cr.BookingID.String(),
			"status":        string(cr.Status),
		},
	})
}

func cleanText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(s) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return s, nil
}
