package sqlstore

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
)

const (
	chatRequestsTable = "chat_requests"
	messagesTable     = "messages"
)

var chatRequestColumns = []string{"id", "user_id", "consultant_id", "booking_id", "status", "created_at", "updated_at"}

type chats struct{ s *Store }

func (r chats) CreateRequest(ctx context.Context, cr *repo.ChatRequest) error {
	_, err := r.s.exec(ctx, pg.Insert(chatRequestsTable).
		Columns(chatRequestColumns...).
		Values(cr.ID, cr.UserID, cr.ConsultantID, cr.BookingID, string(cr.Status), cr.CreatedAt, cr.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert chat request: %w", err)
	}
	return nil
}

func (r chats) GetRequest(ctx context.Context, id uuid.UUID) (*repo.ChatRequest, error) {
	sel := pg.Select(chatRequestColumns...).From(pg.Table(chatRequestsTable)).Where(sql.EQ("id", id))
	if r.s.tx != nil {
		sel = sel.ForUpdate()
	}

	var out *repo.ChatRequest
	err := r.s.query(ctx, sel, func(rows *sql.Rows) error {
		cr, err := scanChatRequest(rows)
		out = cr
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get chat request: %w", err)
	}
	if out == nil {
		return nil, repo.ErrNotFound
	}
	return out, nil
}

func (r chats) RequestExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	return r.s.exists(ctx, pg.Select("id").From(pg.Table(chatRequestsTable)).Where(sql.EQ("booking_id", bookingID)))
}

func (r chats) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status repo.ChatStatus) error {
	n, err := r.s.exec(ctx, pg.Update(chatRequestsTable).
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(sql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("update chat request: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r chats) ListRequests(ctx context.Context, participantID uuid.UUID) ([]*repo.ChatRequest, error) {
	sel := pg.Select(chatRequestColumns...).From(pg.Table(chatRequestsTable)).
		Where(sql.Or(sql.EQ("user_id", participantID), sql.EQ("consultant_id", participantID))).
		OrderBy(sql.Desc("created_at"))

	var out []*repo.ChatRequest
	err := r.s.query(ctx, sel, func(rows *sql.Rows) error {
		cr, err := scanChatRequest(rows)
		if err != nil {
			return err
		}
		out = append(out, cr)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list chat requests: %w", err)
	}
	return out, nil
}

func (r chats) CreateMessage(ctx context.Context, m *repo.Message) error {
	_, err := r.s.exec(ctx, pg.Insert(messagesTable).
		Columns("id", "chat_request_id", "sender_id", "text", "sent_at").
		Values(m.ID, m.ChatRequestID, m.SenderID, m.Text, m.SentAt))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r chats) ListMessages(ctx context.Context, requestID uuid.UUID, since *time.Time, limit int) ([]*repo.Message, error) {
	preds := []*sql.Predicate{sql.EQ("chat_request_id", requestID)}
	if since != nil {
		preds = append(preds, sql.GT("sent_at", *since))
	}
	sel := pg.Select("id", "chat_request_id", "sender_id", "text", "sent_at").
		From(pg.Table(messagesTable)).
		Where(sql.And(preds...)).
		OrderBy("sent_at")
	if limit > 0 {
		sel = sel.Limit(limit)
	}

	var out []*repo.Message
	err := r.s.query(ctx, sel, func(rows *sql.Rows) error {
		var m repo.Message
		if err := rows.Scan(&m.ID, &m.ChatRequestID, &m.SenderID, &m.Text, &m.SentAt); err != nil {
			return fmt.Errorf("scan message: %w", err)
		}
		out = append(out, &m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

func scanChatRequest(rows *sql.Rows) (*repo.ChatRequest, error) {
	var (
		cr     repo.ChatRequest
		status string
	)
	if err := rows.Scan(&cr.ID, &cr.UserID, &cr.ConsultantID, &cr.BookingID, &status, &cr.CreatedAt, &cr.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan chat request: %w", err)
	}
	cr.Status = repo.ChatStatus(status)
	return &cr, nil
}
