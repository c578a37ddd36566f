package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/Alijeyrad/consulto_backend/config"
	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/pkg/constants"
	"github.com/Alijeyrad/consulto_backend/pkg/email"
	"github.com/Alijeyrad/consulto_backend/pkg/events"
	"github.com/Alijeyrad/consulto_backend/pkg/sms"
)

const entityBooking = "booking"

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc    fx.Lifecycle
	Cfg   *config.Config
	Bus   *events.NATS `optional:"true"`
	Store repo.Store
	Email *email.Client
	SMS   *sms.Client
}

func RegisterWorkers(p WorkerParams) {
	if p.Bus == nil {
		slog.Info("notification_worker: no event bus, not started")
		return
	}
	n := &BookingNotifier{
		Store:    p.Store,
		Mail:     p.Email,
		SMS:      p.SMS,
		Currency: p.Cfg.Booking.Currency,
	}

	var sub *nats.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			sub, err = p.Bus.Subscribe(p.Bus.Wildcard(entityBooking), func(ctx context.Context, e events.Event) {
				if err := n.Handle(ctx, e); err != nil {
					slog.Warn("notification_worker: booking notice failed", "booking_id", e.ID, "action", e.Action, "err", err)
				}
			})
			if err != nil {
				return fmt.Errorf("notification_worker: subscribe: %w", err)
			}
			slog.Info("notification_worker: started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// The connection drain in ProvideEventBus flushes pending messages.
			if sub == nil {
				return nil
			}
			return sub.Unsubscribe()
		},
	})
}

// ---------------------------------------------------------------------------
// booking notifier
// ---------------------------------------------------------------------------

type Mailer interface {
	Enabled() bool
	Send(ctx context.Context, m email.Message) error
}

// BookingNotifier tells the party that did not trigger a booking event
// what happened, by email and, when they have a phone, by SMS.
type BookingNotifier struct {
	Store    repo.Store
	Mail     Mailer
	SMS      sms.Notifier
	Currency string
}

func (n *BookingNotifier) Handle(ctx context.Context, e events.Event) error {
	if e.Entity != entityBooking {
		return nil
	}
	b, err := n.Store.Bookings().Get(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("get booking: %w", err)
	}

	recipientID, otherID := b.ConsultantID, b.UserID
	if e.ActorID == b.ConsultantID {
		recipientID, otherID = b.UserID, b.ConsultantID
	}
	recipient, err := n.Store.Users().Get(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("get recipient: %w", err)
	}
	other, err := n.Store.Users().Get(ctx, otherID)
	if err != nil {
		return fmt.Errorf("get counter-party: %w", err)
	}

	data := email.BookingEmailData{
		AppName:       constants.AppName,
		RecipientName: recipient.Name,
		OtherParty:    other.Name,
		Date:          b.Date,
		TimeSlot:      b.TimeSlot,
		Status:        e.Action,
	}
	if b.Status == repo.BookingRejected || b.Status == repo.BookingCanceled {
		if err := n.fillRefund(ctx, b, &data); err != nil {
			return err
		}
	}

	if n.Mail != nil && n.Mail.Enabled() {
		if err := n.Mail.Send(ctx, email.BuildBookingStatusEmail(recipient.Email, data)); err != nil {
			return fmt.Errorf("send email: %w", err)
		}
	}
	if n.SMS != nil && n.SMS.IsEnabled() && recipient.Phone != nil {
		notice := sms.BookingNotice{Status: e.Action, Date: b.Date, Slot: b.TimeSlot}
		if err := n.SMS.SendBookingStatus(ctx, *recipient.Phone, notice); err != nil {
			return fmt.Errorf("send sms: %w", err)
		}
	}

	slog.Debug("notification_worker: booking notice sent", "booking_id", b.ID, "action", e.Action, "recipient_id", recipient.ID)
	return nil
}

func (n *BookingNotifier) fillRefund(ctx context.Context, b *repo.Booking, data *email.BookingEmailData) error {
	p, err := n.Store.Payments().GetByBooking(ctx, b.ID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("get payment: %w", err)
	}
	refunds, err := n.Store.Refunds().ListByPayment(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("list refunds: %w", err)
	}
	if len(refunds) == 0 {
		return nil
	}
	last := refunds[len(refunds)-1]
	currency := p.Currency
	if currency == "" {
		currency = n.Currency
	}
	data.Refund = strconv.FormatInt(last.RefundAmount, 10) + " " + currency
	if last.Note != nil {
		data.Note = *last.Note
	}
	return nil
}
