package review

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

const maxTextLength = 2000

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type PostRequest struct {
	UserID       uuid.UUID
	ConsultantID uuid.UUID
	Rating       int
	Text         string
}

type ConsultantReviews struct {
	Stats   repo.ReviewStats `json:"stats"`
	Reviews []*repo.Review   `json:"reviews"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Post(ctx context.Context, req PostRequest) (*repo.Review, error)
	ListForConsultant(ctx context.Context, consultantID uuid.UUID, page repo.Page) (*ConsultantReviews, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type reviewService struct {
	store  repo.Store
	events events.Publisher
}

func New(store repo.Store, pub events.Publisher) Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &reviewService{store: store, events: pub}
}

func (s *reviewService) Post(ctx context.Context, req PostRequest) (*repo.Review, error) {
	if req.Rating < repo.MinRating || req.Rating > repo.MaxRating {
		return nil, ErrInvalidRating
	}
	text := strings.TrimSpace(req.Text)
	if utf8.RuneCountInString(text) > maxTextLength {
		return nil, ErrTextTooLong
	}

	// Any booking between the pair qualifies, whatever its status.
	ok, err := s.store.Bookings().ExistsBetween(ctx, req.UserID, req.ConsultantID)
	if err != nil {
		return nil, fmt.Errorf("check booking: %w", err)
	}
	if !ok {
		return nil, ErrNoBooking
	}

	rv := &repo.Review{
		ID:           uuid.Must(uuid.NewV7()),
		UserID:       req.UserID,
		ConsultantID: req.ConsultantID,
		Rating:       req.Rating,
		Text:         text,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Reviews().Create(ctx, rv); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	slog.Info("review posted", "review_id", rv.ID, "consultant_id", rv.ConsultantID, "rating", rv.Rating)
	events.PublishLogged(ctx, s.events, events.Event{
		Entity:  "review",
		Action:  "posted",
		ID:      rv.ID,
		ActorID: req.UserID,
		Data: map[string]any{
			"consultant_id": rv.ConsultantID.String(),
			"rating":        rv.Rating,
		},
	})
	return rv, nil
}

func (s *reviewService) ListForConsultant(ctx context.Context, consultantID uuid.UUID, page repo.Page) (*ConsultantReviews, error) {
	u, err := s.store.Users().Get(ctx, consultantID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrConsultantNotFound
		}
		return nil, fmt.Errorf("get consultant: %w", err)
	}
	if !u.IsBookable() {
		return nil, ErrConsultantNotFound
	}

	stats, err := s.store.Reviews().Stats(ctx, consultantID)
	if err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}
	list, err := s.store.Reviews().ListByConsultant(ctx, consultantID, page)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return &ConsultantReviews{Stats: stats, Reviews: list}, nil
}
