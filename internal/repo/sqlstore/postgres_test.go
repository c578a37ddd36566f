//go:build container
// +build container

package sqlstore_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"entgo.io/ent/dialect/sql/schema"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Alijeyrad/consulto_backend/config"
	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/internal/repo/sqlstore"
	"github.com/Alijeyrad/consulto_backend/internal/service/booking"
	"github.com/Alijeyrad/consulto_backend/pkg/availability"
	"github.com/Alijeyrad/consulto_backend/pkg/database"
)

const (
	monday = "2025-01-06"
	slot   = "09:00-10:00"
)

var pgStore *sqlstore.Store

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "consulto",
				"POSTGRES_PASSWORD": "consulto",
				"POSTGRES_DB":       "consulto",
			},
			// The entrypoint restarts the server once after init.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		os.Exit(1)
	}

	code, err := runWithStore(ctx, container, m)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		code = 1
	}
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func runWithStore(ctx context.Context, container tc.Container, m *testing.M) (int, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return 0, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return 0, fmt.Errorf("mapped port: %w", err)
	}

	drv, err := database.NewDriver(database.Config{
		Host:         host,
		Port:         port.Int(),
		User:         "consulto",
		Password:     "consulto",
		DBName:       "consulto",
		SSLMode:      "disable",
		MaxOpenConns: 40,
	})
	if err != nil {
		return 0, fmt.Errorf("open driver: %w", err)
	}
	if err := sqlstore.Migrate(ctx, drv, schema.WithDropColumn(true), schema.WithDropIndex(true)); err != nil {
		return 0, fmt.Errorf("migrate: %w", err)
	}

	pgStore = sqlstore.New(drv)
	defer pgStore.Close()
	return m.Run(), nil
}

func newUser(t *testing.T, role repo.Role) *repo.User {
	t.Helper()
	now := time.Now().UTC()
	u := &repo.User{
		ID:           uuid.Must(uuid.NewV7()),
		Email:        uuid.NewString() + "@example.com",
		Name:         string(role),
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == repo.RoleConsultant {
		u.Consultant = &repo.ConsultantProfile{
			Specialty:  "nutrition",
			IsApproved: true,
			Availability: availability.Schedule{
				availability.Monday: {StartTime: "09:00", EndTime: "12:00"},
				availability.Friday: {StartTime: "14:00", EndTime: "16:00"},
			},
			UpdatedAt: now,
		}
	}
	require.NoError(t, pgStore.Users().Create(context.Background(), u))
	return u
}

func newService(t *testing.T) booking.Service {
	t.Helper()
	svc, err := booking.New(pgStore, nil, config.BookingConfig{SessionFee: 100, Currency: "USD"})
	require.NoError(t, err)
	return svc
}

func pendingBooking(t *testing.T, userID, consultantID uuid.UUID) *repo.Booking {
	t.Helper()
	now := time.Now().UTC()
	b := &repo.Booking{
		ID:           uuid.Must(uuid.NewV7()),
		UserID:       userID,
		ConsultantID: consultantID,
		Date:         monday,
		TimeSlot:     slot,
		Status:       repo.BookingPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, pgStore.Bookings().Create(context.Background(), b))
	return b
}

func TestPostgresAvailabilityRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newUser(t, repo.RoleConsultant)

	got, err := pgStore.Users().Get(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Consultant)
	assert.Equal(t, c.Consultant.Availability, got.Consultant.Availability)
	assert.True(t, got.IsBookable())

	require.NoError(t, pgStore.Users().SetApproved(ctx, c.ID, false))
	edit := *got.Consultant
	edit.IsApproved = true
	edit.Bio = "ten years of practice"
	require.NoError(t, pgStore.Users().SaveConsultantProfile(ctx, c.ID, &edit))

	got, err = pgStore.Users().Get(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.Consultant.IsApproved, "profile edit must not restore approval")
	assert.Equal(t, "ten years of practice", got.Consultant.Bio)
}

func TestPostgresConcurrentCreateOneWins(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	consultant := newUser(t, repo.RoleConsultant)

	const n = 20
	users := make([]*repo.User, n)
	for i := range users {
		users[i] = newUser(t, repo.RoleUser)
	}

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, booking.CreateRequest{
				UserID:       users[i].ID,
				ConsultantID: consultant.ID,
				Date:         monday,
				TimeSlot:     slot,
			})
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, booking.ErrSlotTaken)
	}
	assert.Equal(t, 1, won)

	slots, err := pgStore.Bookings().RequestedSlots(ctx, consultant.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{slot}, slots)
}

func TestPostgresAcceptedSlotIndex(t *testing.T) {
	ctx := context.Background()
	consultant := newUser(t, repo.RoleConsultant)
	first := pendingBooking(t, newUser(t, repo.RoleUser).ID, consultant.ID)
	second := pendingBooking(t, newUser(t, repo.RoleUser).ID, consultant.ID)

	require.NoError(t, pgStore.Bookings().UpdateStatus(ctx, first.ID, repo.BookingAccepted))
	err := pgStore.Bookings().UpdateStatus(ctx, second.ID, repo.BookingAccepted)
	assert.True(t, repo.IsConflict(err), "got %v", err)

	// The index only covers accepted rows.
	require.NoError(t, pgStore.Bookings().UpdateStatus(ctx, second.ID, repo.BookingRejected))
}

func TestPostgresConcurrentAccept(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	consultant := newUser(t, repo.RoleConsultant)
	actor := repo.Actor{ID: consultant.ID, Role: repo.RoleConsultant}
	ids := []uuid.UUID{
		pendingBooking(t, newUser(t, repo.RoleUser).ID, consultant.ID).ID,
		pendingBooking(t, newUser(t, repo.RoleUser).ID, consultant.ID).ID,
	}

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = svc.Accept(ctx, actor, id)
		}(i, id)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, booking.ErrSlotAlreadyAccepted)
	}
	assert.Equal(t, 1, won)

	accepted := repo.BookingAccepted
	list, err := pgStore.Bookings().List(ctx, repo.BookingFilter{ConsultantID: &consultant.ID, Status: &accepted})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPostgresRejectRefunds(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	consultant := newUser(t, repo.RoleConsultant)
	user := newUser(t, repo.RoleUser)

	res, err := svc.Create(ctx, booking.CreateRequest{UserID: user.ID, ConsultantID: consultant.ID, Date: monday, TimeSlot: slot})
	require.NoError(t, err)

	note := "sick day"
	out, err := svc.Reject(ctx, booking.TransitionRequest{
		BookingID: res.Booking.ID,
		Actor:     repo.Actor{ID: consultant.ID, Role: repo.RoleConsultant},
		Note:      &note,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(90), out.Refund.RefundAmount)

	p, err := pgStore.Payments().GetByBooking(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.PaymentRefunded, p.Status)

	refunds, err := pgStore.Refunds().ListByPayment(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, repo.RefundRejection, refunds[0].Reason)
	require.NotNil(t, refunds[0].Note)
	assert.Equal(t, note, *refunds[0].Note)

	_, err = svc.Cancel(ctx, booking.TransitionRequest{BookingID: res.Booking.ID, Actor: repo.Actor{ID: user.ID, Role: repo.RoleUser}})
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

func TestPostgresCancelRollsBack(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	consultant := newUser(t, repo.RoleConsultant)
	user := newUser(t, repo.RoleUser)
	// No payment row, so the refund step fails after the status update.
	b := pendingBooking(t, user.ID, consultant.ID)

	_, err := svc.Cancel(ctx, booking.TransitionRequest{BookingID: b.ID, Actor: repo.Actor{ID: user.ID, Role: repo.RoleUser}})
	require.ErrorIs(t, err, booking.ErrPaymentNotFound)

	got, err := pgStore.Bookings().Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.BookingPending, got.Status)
}
