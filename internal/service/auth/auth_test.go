package auth

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
	pasetotoken "github.com/Alijeyrad/consulto_backend/pkg/paseto"
	"github.com/Alijeyrad/consulto_backend/pkg/util/password"
)

type grants map[uuid.UUID]repo.Role

type fixture struct {
	store    *memstore.Store
	sessions *MemorySessions
	tokens   *pasetotoken.Manager
	granted  grants
	grantErr error
	svc      Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := pasetotoken.New(pasetotoken.Config{
		Mode:      pasetotoken.ModeLocal,
		Issuer:    "consulto",
		Audience:  "consulto-api",
		AccessTTL: time.Minute,
	}, pasetotoken.NewLocalKeys())
	require.NoError(t, err)

	f := &fixture{
		store:    memstore.New(),
		sessions: NewMemorySessions(),
		tokens:   tokens,
		granted:  grants{},
	}
	roles := RoleGranterFunc(func(_ context.Context, id uuid.UUID, role repo.Role) error {
		if f.grantErr != nil {
			return f.grantErr
		}
		f.granted[id] = role
		return nil
	})
	hasher := password.NewHasher(password.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	f.svc = New(f.store, f.sessions, tokens, hasher, roles, config.AuthenticationConfig{DefaultPhoneRegion: "US"})
	return f
}

func (f *fixture) register(t *testing.T, email string, role repo.Role) *repo.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "longenough",
		Name:     "Test Person",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	raw := "(650) 253-0000"

	u, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    "  Alice@Example.com ",
		Password: "longenough",
		Name:     "Alice",
		Phone:    &raw,
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, repo.RoleUser, u.Role)
	require.NotNil(t, u.Phone)
	assert.Equal(t, "+16502530000", *u.Phone)
	assert.NotEqual(t, "longenough", u.PasswordHash)
	assert.Equal(t, repo.RoleUser, f.granted[u.ID])

	logs, err := f.store.AuditLogs().List(context.Background(), repo.AuditFilter{EntityID: &u.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "user.registered", logs[0].Action)
}

func TestRegisterConsultantStartsUnapproved(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "doc@example.com", repo.RoleConsultant)

	stored, err := f.store.Users().Get(context.Background(), u.ID)
	require.NoError(t, err)
	c, ok := stored.AsConsultant()
	require.True(t, ok)
	assert.False(t, c.Profile.IsApproved)
	assert.False(t, stored.IsBookable())
	assert.Equal(t, repo.RoleConsultant, f.granted[u.ID])
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	f.register(t, "taken@example.com", repo.RoleUser)
	bad := "12"

	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"duplicate email", RegisterRequest{Email: "TAKEN@example.com", Password: "longenough", Name: "X"}, ErrEmailExists},
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "longenough", Name: "X"}, ErrInvalidEmail},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short", Name: "X"}, ErrPasswordTooShort},
		{"missing name", RegisterRequest{Email: "a@example.com", Password: "longenough", Name: " "}, ErrNameRequired},
		{"admin role", RegisterRequest{Email: "a@example.com", Password: "longenough", Name: "X", Role: repo.RoleAdmin}, ErrInvalidRole},
		{"bad phone", RegisterRequest{Email: "a@example.com", Password: "longenough", Name: "X", Phone: &bad}, ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.True(t, IsConflict(ErrEmailExists))
}

func TestRegisterRollsBackWhenGrantFails(t *testing.T) {
	f := newFixture(t)
	f.grantErr = errors.New("casbin down")

	_, err := f.svc.Register(context.Background(), RegisterRequest{Email: "a@example.com", Password: "longenough", Name: "A"})
	require.Error(t, err)

	_, err = f.store.Users().GetByEmail(context.Background(), "a@example.com")
	assert.True(t, repo.IsNotFound(err))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "bob@example.com", repo.RoleConsultant)

	tokens, err := f.svc.Login(ctx, LoginRequest{Email: "Bob@example.com", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, int64(60), tokens.ExpiresIn)
	assert.Equal(t, u.ID, tokens.User.ID)

	claims, err := f.tokens.VerifyType(tokens.AccessToken, pasetotoken.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "consultant", claims.Role)
	require.NotNil(t, claims.SessionID)
	assert.NoError(t, f.svc.ValidateSession(ctx, *claims.SessionID))

	_, err = f.svc.Login(ctx, LoginRequest{Email: "bob@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "carol@example.com", repo.RoleUser)

	first, err := f.svc.Login(ctx, LoginRequest{Email: "carol@example.com", Password: "longenough"})
	require.NoError(t, err)

	second, err := f.svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 1, f.sessions.Len())

	// The old refresh token is spent.
	_, err = f.svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Access tokens cannot refresh.
	_, err = f.svc.Refresh(ctx, second.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "dave@example.com", repo.RoleUser)

	tokens, err := f.svc.Login(ctx, LoginRequest{Email: "dave@example.com", Password: "longenough"})
	require.NoError(t, err)
	claims, err := f.tokens.Verify(tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, *claims.SessionID))
	assert.ErrorIs(t, f.svc.ValidateSession(ctx, *claims.SessionID), ErrSessionNotFound)

	_, err = f.svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Logging out twice is fine.
	assert.NoError(t, f.svc.Logout(ctx, *claims.SessionID))
}

func TestCreateAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.CreateAdmin(ctx, CreateAdminRequest{Email: "root@example.com", Password: "longenough", Name: "Root"})
	require.NoError(t, err)
	assert.Equal(t, repo.RoleAdmin, u.Role)
	assert.Equal(t, repo.RoleAdmin, f.granted[u.ID])

	_, err = f.svc.CreateAdmin(ctx, CreateAdminRequest{Email: "root@example.com", Password: "longenough", Name: "Root"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestMemorySessionsExpire(t *testing.T) {
	m := NewMemorySessions()
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()
	s := &Session{ID: uuid.New(), UserID: uuid.New()}

	require.NoError(t, m.Save(ctx, s, time.Minute))
	_, err := m.Get(ctx, s.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
