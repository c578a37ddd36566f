package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
)

func booking(consultant uuid.UUID, status repo.BookingStatus) *repo.Booking {
	return &repo.Booking{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		ConsultantID: consultant,
		Date:         "2025-01-06",
		TimeSlot:     "09:00-10:00",
		Status:       status,
		CreatedAt:    time.Now(),
	}
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	b := booking(uuid.New(), repo.BookingPending)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx repo.Store) error {
		require.NoError(t, tx.Bookings().Create(ctx, b))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Bookings().Get(ctx, b.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestInTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	b := booking(uuid.New(), repo.BookingPending)

	require.NoError(t, s.InTx(ctx, func(tx repo.Store) error {
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return err
		}
		// nested InTx joins the open transaction
		return tx.InTx(ctx, func(inner repo.Store) error {
			return inner.Bookings().UpdateStatus(ctx, b.ID, repo.BookingAccepted)
		})
	}))

	got, err := s.Bookings().Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.BookingAccepted, got.Status)
}

func TestAcceptedSlotIsUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	consultant := uuid.New()
	first := booking(consultant, repo.BookingAccepted)
	second := booking(consultant, repo.BookingPending)
	require.NoError(t, s.Bookings().Create(ctx, first))
	require.NoError(t, s.Bookings().Create(ctx, second))

	err := s.Bookings().UpdateStatus(ctx, second.ID, repo.BookingAccepted)
	assert.ErrorIs(t, err, repo.ErrConflict)

	taken, err := s.Bookings().AcceptedElsewhere(ctx, consultant, "2025-01-06", "09:00-10:00", second.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.Bookings().AcceptedElsewhere(ctx, consultant, "2025-01-06", "09:00-10:00", first.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := &repo.User{ID: uuid.New(), Email: "Dr@Example.com", Name: "Dr", Role: repo.RoleConsultant}
	require.NoError(t, s.Users().Create(ctx, u))
	require.NoError(t, s.Users().SaveConsultantProfile(ctx, u.ID, &repo.ConsultantProfile{Specialty: "nutrition"}))
	require.NoError(t, s.Users().SetApproved(ctx, u.ID, true))

	got, err := s.Users().GetByEmail(ctx, "dr@example.com")
	require.NoError(t, err)
	require.NotNil(t, got.Consultant)
	assert.True(t, got.IsBookable())
	assert.Equal(t, "nutrition", got.Consultant.Specialty)

	dup := &repo.User{ID: uuid.New(), Email: "dr@example.com", Role: repo.RoleUser}
	assert.ErrorIs(t, s.Users().Create(ctx, dup), repo.ErrConflict)

	approved := true
	list, err := s.Users().ListConsultants(ctx, repo.ConsultantFilter{Approved: &approved})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// A profile edit built from a pre-approval read keeps the approval.
	require.NoError(t, s.Users().SaveConsultantProfile(ctx, u.ID, &repo.ConsultantProfile{Specialty: "sleep"}))
	got, err = s.Users().Get(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Consultant.IsApproved)
	assert.Equal(t, "sleep", got.Consultant.Specialty)
}

func TestFailOn(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.FailOn = func(op string) error {
		if op == "payments.create" {
			return errors.New("disk full")
		}
		return nil
	}
	err := s.Payments().Create(ctx, &repo.Payment{ID: uuid.New(), BookingID: uuid.New()})
	assert.EqualError(t, err, "disk full")
}
