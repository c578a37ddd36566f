package repo

import (
	"time"

	"github.com/google/uuid"
)

type ChatStatus string

const (
	ChatPending  ChatStatus = "pending"
	ChatAccepted ChatStatus = "accepted"
	ChatRejected ChatStatus = "rejected"
)

func (s ChatStatus) Valid() bool {
	switch s {
	case ChatPending, ChatAccepted, ChatRejected:
		return true
	}
	return false
}

// CanTransitionTo allows only the consultant's one-time answer.
func (s ChatStatus) CanTransitionTo(next ChatStatus) bool {
	return s == ChatPending && (next == ChatAccepted || next == ChatRejected)
}

type ChatRequest struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	ConsultantID uuid.UUID  `json:"consultant_id"`
	BookingID    uuid.UUID  `json:"booking_id"`
	Status       ChatStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (r *ChatRequest) IsParty(id uuid.UUID) bool {
	return r.UserID == id || r.ConsultantID == id
}

type Message struct {
	ID            uuid.UUID `json:"id"`
	ChatRequestID uuid.UUID `json:"chat_request_id"`
	SenderID      uuid.UUID `json:"sender_id"`
	Text          string    `json:"text"`
	SentAt        time.Time `json:"sent_at"`
}
