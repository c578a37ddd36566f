package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/consulto_backend/config"
	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/internal/repo/memstore"
	"github.com/Alijeyrad/consulto_backend/pkg/availability"
	"github.com/Alijeyrad/consulto_backend/pkg/events"
)

const (
	monday = "2025-01-06"
	slot   = "09:00-10:00"
)

type fixture struct {
	store      *memstore.Store
	events     *events.Recorder
	svc        Service
	user       *repo.User
	consultant *repo.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	user := &repo.User{ID: uuid.New(), Email: "user@example.com", Name: "User", Role: repo.RoleUser}
	consultant := &repo.User{
		ID:    uuid.New(),
		Email: "doc@example.com",
		Name:  "Doc",
		Role:  repo.RoleConsultant,
		Consultant: &repo.ConsultantProfile{
			Specialty:  "nutrition",
			IsApproved: true,
			Availability: availability.Schedule{
				availability.Monday: {StartTime: "09:00", EndTime: "17:00"},
			},
		},
	}
	require.NoError(t, store.Users().Create(ctx, user))
	require.NoError(t, store.Users().Create(ctx, consultant))

	rec := &events.Recorder{}
	svc, err := New(store, rec, config.BookingConfig{SessionFee: 100, Currency: "usd"})
	require.NoError(t, err)
	return &fixture{
		store:      store,
		events:     rec,
		svc:        svc,
		user:       user,
		consultant: consultant,
	}
}

func (f *fixture) book(t *testing.T) *CreateResult {
	t.Helper()
	res, err := f.svc.Create(context.Background(), CreateRequest{
		UserID:       f.user.ID,
		ConsultantID: f.consultant.ID,
		Date:         monday,
		TimeSlot:     slot,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) consultantActor() repo.Actor {
	return repo.Actor{ID: f.consultant.ID, Role: repo.RoleConsultant}
}

func (f *fixture) userActor() repo.Actor {
	return repo.Actor{ID: f.user.ID, Role: repo.RoleUser}
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)
	res := f.book(t)

	assert.Equal(t, repo.BookingPending, res.Booking.Status)
	assert.Equal(t, repo.PaymentPaid, res.Payment.Status)
	assert.Equal(t, int64(100), res.Payment.Amount)
	assert.Equal(t, "USD", res.Payment.Currency)
	assert.Equal(t, res.Booking.ID, res.Payment.BookingID)

	stored, err := f.store.Payments().GetByBooking(context.Background(), res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored.Amount)

	evs := f.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, "booking", evs[0].Entity)
	assert.Equal(t, "created", evs[0].Action)

	logs, err := f.store.AuditLogs().List(context.Background(), repo.AuditFilter{EntityID: &res.Booking.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "booking.created", logs[0].Action)
}

func TestCreateBookingRejectsInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, r *CreateRequest)
		want   error
	}{
		{"bad date", func(_ *fixture, r *CreateRequest) { r.Date = "06/01/2025" }, ErrInvalidDate},
		{"closed day", func(_ *fixture, r *CreateRequest) { r.Date = "2025-01-07" }, ErrOutsideAvailability},
		{"slot past window", func(_ *fixture, r *CreateRequest) { r.TimeSlot = "17:00-18:00" }, ErrOutsideAvailability},
		{"unaligned slot", func(_ *fixture, r *CreateRequest) { r.TimeSlot = "09:30-10:30" }, ErrOutsideAvailability},
		{"unknown consultant", func(_ *fixture, r *CreateRequest) { r.ConsultantID = uuid.New() }, ErrConsultantNotFound},
		{"not a consultant", func(f *fixture, r *CreateRequest) {
			r.ConsultantID = f.user.ID
			r.UserID = uuid.New()
		}, ErrConsultantNotFound},
		{"self booking", func(f *fixture, r *CreateRequest) { r.UserID = f.consultant.ID }, ErrSelfBooking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := CreateRequest{UserID: f.user.ID, ConsultantID: f.consultant.ID, Date: monday, TimeSlot: slot}
			tt.mutate(f, &req)

			_, err := f.svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateBookingUnapprovedConsultant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Users().SetApproved(ctx, f.consultant.ID, false))

	_, err := f.svc.Create(ctx, CreateRequest{UserID: f.user.ID, ConsultantID: f.consultant.ID, Date: monday, TimeSlot: slot})
	assert.ErrorIs(t, err, ErrConsultantNotFound)
}

func TestCreateBookingSlotTaken(t *testing.T) {
	f := newFixture(t)
	f.book(t)

	other := &repo.User{ID: uuid.New(), Email: "other@example.com", Name: "Other", Role: repo.RoleUser}
	require.NoError(t, f.store.Users().Create(context.Background(), other))

	_, err := f.svc.Create(context.Background(), CreateRequest{UserID: other.ID, ConsultantID: f.consultant.ID, Date: monday, TimeSlot: slot})
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.True(t, IsConflict(err))
}

func TestCreateBookingSlotStaysTakenAfterRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.book(t)
	_, err := f.svc.Reject(ctx, TransitionRequest{BookingID: res.Booking.ID, Actor: f.consultantActor()})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, CreateRequest{UserID: f.user.ID, ConsultantID: f.consultant.ID, Date: monday, TimeSlot: slot})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestCreateBookingUserDoubleBooked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t)

	second := &repo.User{
		ID:    uuid.New(),
		Email: "doc2@example.com",
		Name:  "Doc Two",
		Role:  repo.RoleConsultant,
		Consultant: &repo.ConsultantProfile{
			IsApproved:   true,
			Availability: availability.Schedule{availability.Monday: {StartTime: "08:00", EndTime: "12:00"}},
		},
	}
	require.NoError(t, f.store.Users().Create(ctx, second))

	_, err := f.svc.Create(ctx, CreateRequest{UserID: f.user.ID, ConsultantID: second.ID, Date: monday, TimeSlot: slot})
	assert.ErrorIs(t, err, ErrUserDoubleBooked)
}

func TestCreateBookingRollsBackOnPaymentFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("payment store down")
	f.store.FailOn = func(op string) error {
		if op == "payments.create" {
			return boom
		}
		return nil
	}

	_, err := f.svc.Create(ctx, CreateRequest{UserID: f.user.ID, ConsultantID: f.consultant.ID, Date: monday, TimeSlot: slot})
	require.ErrorIs(t, err, boom)

	f.store.FailOn = nil
	list, err := f.store.Bookings().List(ctx, repo.BookingFilter{ConsultantID: &f.consultant.ID})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.events.Events())

	// the slot is still free
	f.book(t)
}

func TestAcceptBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.book(t)

	b, err := f.svc.Accept(ctx, f.consultantActor(), res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.BookingAccepted, b.Status)

	_, err = f.svc.Accept(ctx, f.consultantActor(), res.Booking.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, IsConflict(err))
}

func TestAcceptRequiresConsultant(t *testing.T) {
	f := newFixture(t)
	res := f.book(t)

	_, err := f.svc.Accept(context.Background(), f.userActor(), res.Booking.ID)
	assert.ErrorIs(t, err, ErrNotBookingParty)

	_, err = f.svc.Accept(context.Background(), f.consultantActor(), uuid.New())
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestAcceptConflictsWithAcceptedSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.book(t)
	_, err := f.svc.Accept(ctx, f.consultantActor(), res.Booking.ID)
	require.NoError(t, err)

	// A second pending booking for the same slot can only appear via direct
	// inserts; the accept must still refuse it.
	dup := &repo.Booking{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		ConsultantID: f.consultant.ID,
		Date:         monday,
		TimeSlot:     slot,
		Status:       repo.BookingPending,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, f.store.Bookings().Create(ctx, dup))

	_, err = f.svc.Accept(ctx, f.consultantActor(), dup.ID)
	assert.ErrorIs(t, err, ErrSlotAlreadyAccepted)

	_, err = f.svc.Reject(ctx, TransitionRequest{BookingID: dup.ID, Actor: f.consultantActor()})
	assert.ErrorIs(t, err, ErrSlotAlreadyAccepted)
}

func TestRejectRefunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.book(t)

	out, err := f.svc.Reject(ctx, TransitionRequest{BookingID: res.Booking.ID, Actor: f.consultantActor()})
	require.NoError(t, err)
	assert.Equal(t, repo.BookingRejected, out.Booking.Status)
	assert.Equal(t, repo.PaymentRefunded, out.Payment.Status)
	assert.Equal(t, int64(90), out.Refund.RefundAmount)
	assert.Equal(t, repo.RefundRejection, out.Refund.Reason)

	refunds, err := f.store.Refunds().ListByPayment(ctx, res.Payment.ID)
	require.NoError(t, err)
	require.Len(t, refunds, 1)

	_, err = f.svc.Reject(ctx, TransitionRequest{BookingID: res.Booking.ID, Actor: f.consultantActor()})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRejectRequiresConsultant(t *testing.T) {
	f := newFixture(t)
	res := f.book(t)

	_, err := f.svc.Reject(context.Background(), TransitionRequest{BookingID: res.Booking.ID, Actor: f.userActor()})
	assert.ErrorIs(t, err, ErrNotBookingParty)
}

func TestCancelAcceptedBookingRefundsNinetyPercent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.book(t)
	_, err := f.svc.Accept(ctx, f.consultantActor(), res.Booking.ID)
	require.NoError(t, err)

	out, err := f.svc.Cancel(ctx, TransitionRequest{BookingID: res.Booking.ID, Actor: f.userActor()})
	require.NoError(t, err)
	assert.Equal(t, int64(90), out.Refund.RefundAmount)
	assert.Equal(t, repo.RefundCancellation, out.Refund.Reason)

	p, err := f.store.Payments().GetByBooking(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.PaymentRefunded, p.Status)

	b, err := f.store.Bookings().Get(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.BookingCanceled, b.Status)

	_, err = f.svc.Cancel(ctx, TransitionRequest{BookingID: res.Booking.ID, Actor: f.userActor()})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelByOutsider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.book(t)

	_, err := f.svc.Cancel(ctx, TransitionRequest{BookingID: res.Booking.ID, Actor: repo.Actor{ID: uuid.New(), Role: repo.RoleUser}})
	assert.ErrorIs(t, err, ErrNotBookingParty)

	_, err = f.svc.Cancel(ctx, TransitionRequest{BookingID: res.Booking.ID, Actor: repo.Actor{ID: uuid.New(), Role: repo.RoleAdmin}})
	assert.NoError(t, err)
}

func TestCancelWithoutPaymentRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := &repo.Booking{
		ID:           uuid.New(),
		UserID:       f.user.ID,
		ConsultantID: f.consultant.ID,
		Date:         monday,
		TimeSlot:     slot,
		Status:       repo.BookingPending,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, f.store.Bookings().Create(ctx, b))

	_, err := f.svc.Cancel(ctx, TransitionRequest{BookingID: b.ID, Actor: f.userActor()})
	require.ErrorIs(t, err, ErrPaymentNotFound)

	got, err := f.store.Bookings().Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.BookingPending, got.Status)
}

func TestCancelRollsBackWhenRefundFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.book(t)

	boom := errors.New("refund store down")
	f.store.FailOn = func(op string) error {
		if op == "refunds.create" {
			return boom
		}
		return nil
	}
	_, err := f.svc.Cancel(ctx, TransitionRequest{BookingID: res.Booking.ID, Actor: f.userActor()})
	require.ErrorIs(t, err, boom)
	f.store.FailOn = nil

	b, err := f.store.Bookings().Get(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.BookingPending, b.Status)

	p, err := f.store.Payments().GetByBooking(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.PaymentPaid, p.Status)
}

func TestRefundAmount(t *testing.T) {
	tests := []struct {
		amount int64
		want   int64
	}{
		{100, 90},
		{1000, 900},
		{12340, 11106},
		{0, 0},
	}
	for _, tt := range tests {
		assert.True(t, ExactRefund(tt.amount), "amount %d", tt.amount)
		assert.Equal(t, tt.want, RefundAmount(tt.amount), "amount %d", tt.amount)
		assert.Equal(t, tt.amount*9, RefundAmount(tt.amount)*10, "refund is exactly 90%% of %d", tt.amount)
	}
}

func TestNewRejectsInexactFee(t *testing.T) {
	for _, fee := range []int64{105, 12345, 1} {
		_, err := New(memstore.New(), nil, config.BookingConfig{SessionFee: fee})
		assert.ErrorIs(t, err, ErrInexactRefund, "fee %d", fee)
	}

	svc, err := New(memstore.New(), nil, config.BookingConfig{SessionFee: 250})
	require.NoError(t, err)
	assert.NotNil(t, svc)

	_, err = New(memstore.New(), nil, config.BookingConfig{})
	assert.NoError(t, err, "default fee refunds exactly")
}

func TestGetAndListMine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.book(t)

	got, err := f.svc.Get(ctx, f.userActor(), res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Booking.ID, got.ID)

	_, err = f.svc.Get(ctx, repo.Actor{ID: uuid.New(), Role: repo.RoleUser}, res.Booking.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	mine, err := f.svc.ListMine(ctx, f.userActor(), ListRequest{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.svc.ListMine(ctx, f.consultantActor(), ListRequest{})
	require.NoError(t, err)
	assert.Len(t, theirs, 1)

	accepted := repo.BookingAccepted
	none, err := f.svc.ListMine(ctx, f.userActor(), ListRequest{Status: &accepted})
	require.NoError(t, err)
	assert.Empty(t, none)
}
