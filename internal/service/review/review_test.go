package review

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

func seed(t *testing.T, status repo.BookingStatus) (*memstore.Store, uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	consultant := &repo.User{
		ID:         uuid.New(),
		Email:      "doc@example.com",
		Name:       "Doc",
		Role:       repo.RoleConsultant,
		Consultant: &repo.ConsultantProfile{IsApproved: true},
	}
	user := &repo.User{ID: uuid.New(), Email: "user@example.com", Name: "User", Role: repo.RoleUser}
	require.NoError(t, store.Users().Create(ctx, consultant))
	require.NoError(t, store.Users().Create(ctx, user))

	require.NoError(t, store.Bookings().Create(ctx, &repo.Booking{
		ID:           uuid.New(),
		UserID:       user.ID,
		ConsultantID: consultant.ID,
		Date:         "2025-01-06",
		TimeSlot:     "09:00-10:00",
		Status:       status,
		CreatedAt:    time.Now(),
	}))
	return store, user.ID, consultant.ID
}

func TestPostReview(t *testing.T) {
	store, user, consultant := seed(t, repo.BookingPending)
	rec := &events.Recorder{}
	svc := New(store, rec)

	rv, err := svc.Post(context.Background(), PostRequest{UserID: user, ConsultantID: consultant, Rating: 4, Text: " solid advice "})
	require.NoError(t, err)
	assert.Equal(t, 4, rv.Rating)
	assert.Equal(t, "solid advice", rv.Text)

	require.Len(t, rec.Events(), 1)
	assert.Equal(t, "posted", rec.Events()[0].Action)
}

func TestPostReviewAnyBookingStatus(t *testing.T) {
	for _, status := range repo.BookingStatuses {
		t.Run(string(status), func(t *testing.T) {
			store, user, consultant := seed(t, status)
			_, err := New(store, nil).Post(context.Background(), PostRequest{UserID: user, ConsultantID: consultant, Rating: 5})
			assert.NoError(t, err)
		})
	}
}

func TestPostReviewValidation(t *testing.T) {
	store, user, consultant := seed(t, repo.BookingAccepted)
	svc := New(store, nil)

	tests := []struct {
		name string
		req  PostRequest
		want error
	}{
		{"rating zero", PostRequest{UserID: user, ConsultantID: consultant, Rating: 0}, ErrInvalidRating},
		{"rating six", PostRequest{UserID: user, ConsultantID: consultant, Rating: 6}, ErrInvalidRating},
		{"no booking", PostRequest{UserID: uuid.New(), ConsultantID: consultant, Rating: 3}, ErrNoBooking},
		{"reversed pair", PostRequest{UserID: consultant, ConsultantID: user, Rating: 3}, ErrNoBooking},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Post(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestListForConsultant(t *testing.T) {
	store, user, consultant := seed(t, repo.BookingAccepted)
	svc := New(store, nil)
	ctx := context.Background()

	for _, rating := range []int{5, 4} {
		_, err := svc.Post(ctx, PostRequest{UserID: user, ConsultantID: consultant, Rating: rating})
		require.NoError(t, err)
	}

	out, err := svc.ListForConsultant(ctx, consultant, repo.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Stats.Count)
	assert.InDelta(t, 4.5, out.Stats.Average, 0.0001)
	assert.Len(t, out.Reviews, 2)

	_, err = svc.ListForConsultant(ctx, user, repo.Page{})
	assert.ErrorIs(t, err, ErrConsultantNotFound)
}
