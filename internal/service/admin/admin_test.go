package admin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/internal/repo/memstore"
	"github.com/Alijeyrad/consulto_backend/pkg/events"
)

func seedConsultant(t *testing.T, store *memstore.Store, approved bool, withProfile bool) *repo.User {
	t.Helper()
	u := &repo.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Name: "Doc", Role: repo.RoleConsultant}
	if withProfile {
		u.Consultant = &repo.ConsultantProfile{IsApproved: approved}
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func TestApproveConsultant(t *testing.T) {
	store := memstore.New()
	rec := &events.Recorder{}
	svc := New(store, rec)
	ctx := context.Background()
	admin := uuid.New()
	doc := seedConsultant(t, store, false, true)

	pending, err := svc.ListPendingConsultants(ctx, repo.Page{})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	u, err := svc.ApproveConsultant(ctx, ApproveRequest{AdminID: admin, ConsultantID: doc.ID, Approved: true})
	require.NoError(t, err)
	assert.True(t, u.IsBookable())

	pending, err = svc.ListPendingConsultants(ctx, repo.Page{})
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.Len(t, rec.Events(), 1)
	assert.Equal(t, "approved", rec.Events()[0].Action)

	logs, err := svc.ListAuditLog(ctx, AuditQuery{ActorID: &admin})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "consultant.approval_changed", logs[0].Action)
	assert.Equal(t, doc.ID, logs[0].EntityID)

	u, err = svc.ApproveConsultant(ctx, ApproveRequest{AdminID: admin, ConsultantID: doc.ID, Approved: false})
	require.NoError(t, err)
	assert.False(t, u.IsBookable())
	assert.Equal(t, "suspended", rec.Events()[1].Action)
}

func TestApproveConsultantWithoutProfileRow(t *testing.T) {
	store := memstore.New()
	svc := New(store, nil)
	doc := seedConsultant(t, store, false, false)

	u, err := svc.ApproveConsultant(context.Background(), ApproveRequest{AdminID: uuid.New(), ConsultantID: doc.ID, Approved: true})
	require.NoError(t, err)
	assert.True(t, u.IsBookable())
}

func TestApproveRejectsNonConsultants(t *testing.T) {
	store := memstore.New()
	svc := New(store, nil)
	ctx := context.Background()
	customer := &repo.User{ID: uuid.New(), Email: "c@example.com", Name: "C", Role: repo.RoleUser}
	require.NoError(t, store.Users().Create(ctx, customer))

	_, err := svc.ApproveConsultant(ctx, ApproveRequest{ConsultantID: customer.ID, Approved: true})
	assert.ErrorIs(t, err, ErrConsultantNotFound)
	_, err = svc.ApproveConsultant(ctx, ApproveRequest{ConsultantID: uuid.New(), Approved: true})
	assert.ErrorIs(t, err, ErrConsultantNotFound)
}

func TestListBookings(t *testing.T) {
	store := memstore.New()
	svc := New(store, nil)
	ctx := context.Background()
	doc := uuid.New()

	for i, st := range []repo.BookingStatus{repo.BookingPending, repo.BookingAccepted, repo.BookingCanceled} {
		require.NoError(t, store.Bookings().Create(ctx, &repo.Booking{
			ID:           uuid.New(),
			UserID:       uuid.New(),
			ConsultantID: doc,
			Date:         "2025-01-06",
			TimeSlot:     []string{"09:00-10:00", "10:00-11:00", "11:00-12:00"}[i],
			Status:       st,
			CreatedAt:    time.Now(),
		}))
	}

	all, err := svc.ListBookings(ctx, BookingQuery{ConsultantID: &doc})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	accepted, err := svc.ListBookings(ctx, BookingQuery{Status: "accepted"})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, repo.BookingAccepted, accepted[0].Status)

	_, err = svc.ListBookings(ctx, BookingQuery{Status: "done"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
	_, err = svc.ListBookings(ctx, BookingQuery{Date: "tomorrow"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}
