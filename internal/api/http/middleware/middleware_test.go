package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	casbin "github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/consulto_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/consulto_backend/pkg/paseto"
	"github.com/Alijeyrad/consulto_backend/pkg/reqctx"
)

type sessionSet map[uuid.UUID]bool

func (s sessionSet) ValidateSession(_ context.Context, id uuid.UUID) error {
	if !s[id] {
		return errors.New("no session")
	}
	return nil
}

func newTokens(t *testing.T) *pasetotoken.Manager {
	t.Helper()
	m, err := pasetotoken.New(pasetotoken.Config{
		Mode:       pasetotoken.ModeLocal,
		Issuer:     "consulto",
		Audience:   "consulto-api",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}, pasetotoken.NewLocalKeys())
	require.NoError(t, err)
	return m
}

func get(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAuthRequired(t *testing.T) {
	tokens := newTokens(t)
	live := pasetotoken.Principal{UserID: uuid.New(), Role: "user", SessionID: uuid.New()}
	revoked := pasetotoken.Principal{UserID: uuid.New(), Role: "user", SessionID: uuid.New()}
	sessions := sessionSet{live.SessionID: true}

	app := fiber.New()
	app.Get("/me", AuthRequired(tokens, sessions), func(c fiber.Ctx) error {
		claims, ok := pasetotoken.ClaimsFromFiber(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		id, _ := reqctx.UserIDFromContext(c.Context())
		if id != claims.UserID {
			return fiber.ErrInternalServerError
		}
		return c.SendString(claims.Role)
	})

	access, err := tokens.IssueAccess(live)
	require.NoError(t, err)
	refresh, err := tokens.IssueRefresh(live)
	require.NoError(t, err)
	revokedAccess, err := tokens.IssueAccess(revoked)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"valid access token", access, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"garbage", "not-a-token", http.StatusUnauthorized},
		{"refresh token", refresh, http.StatusUnauthorized},
		{"revoked session", revokedAccess, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, app, "/me", tt.token)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRequirePermission(t *testing.T) {
	dir := t.TempDir()
	policy := filepath.Join(dir, "policy.csv")
	require.NoError(t, os.WriteFile(policy, nil, 0o644))
	e, err := casbin.NewDistributedEnforcer(filepath.Join("..", "..", "..", "..", "casbin_model.conf"), fileadapter.NewAdapter(policy))
	require.NoError(t, err)
	e.EnableAutoSave(false)

	auth, err := authorize.NewAuthorization(e)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, authorize.SeedDefaultPolicies(ctx, auth))

	customer, consultant := uuid.New(), uuid.New()
	require.NoError(t, authorize.AssignAccountRole(ctx, auth, customer.String(), "user"))
	require.NoError(t, authorize.AssignAccountRole(ctx, auth, consultant.String(), "consultant"))

	withClaims := func(id uuid.UUID) fiber.Handler {
		return func(c fiber.Ctx) error {
			c.Locals(pasetotoken.CtxKeyClaims, &pasetotoken.Claims{UserID: id})
			return c.Next()
		}
	}

	app := fiber.New()
	accept := RequirePermission(auth, authorize.ResourceBooking, authorize.ActionAccept)
	ok := func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Get("/customer", withClaims(customer), accept, ok)
	app.Get("/consultant", withClaims(consultant), accept, ok)
	app.Get("/anonymous", accept, ok)

	assert.Equal(t, http.StatusForbidden, get(t, app, "/customer", "").StatusCode)
	assert.Equal(t, http.StatusOK, get(t, app, "/consultant", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/anonymous", "").StatusCode)
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c fiber.Ctx) error {
		rid, _ := RequestIDFromFiber(c)
		if reqctx.RequestIDFromContext(c.Context()) != rid {
			return fiber.ErrInternalServerError
		}
		return c.SendString(rid)
	})

	resp := get(t, app, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := uuid.Parse(resp.Header.Get(HeaderRequestID))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "upstream-123")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "upstream-123", resp.Header.Get(HeaderRequestID))
}

func TestLimiter(t *testing.T) {
	app := fiber.New()
	app.Use(newLimiter(nil, 2))
	app.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	assert.Equal(t, http.StatusOK, get(t, app, "/", "").StatusCode)
	assert.Equal(t, http.StatusOK, get(t, app, "/", "").StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, get(t, app, "/", "").StatusCode)
}
