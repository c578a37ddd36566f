package middleware

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	pasetotoken "github.com/Alijeyrad/consulto_backend/pkg/paseto"
	"github.com/Alijeyrad/consulto_backend/pkg/reqctx"
)

// SessionValidator reports an error once a session is revoked or expired.
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID uuid.UUID) error
}

// AuthRequired validates a Bearer PASETO access token and checks its session.
// On success the claims are stored in c.Locals(pasetotoken.CtxKeyClaims) and
// in the request context.
func AuthRequired(mgr *pasetotoken.Manager, sessions SessionValidator) fiber.Handler {
	return func(c fiber.Ctx) error {
		tok, ok := pasetotoken.BearerToken(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.VerifyType(tok, pasetotoken.TokenTypeAccess)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		if claims.SessionID == nil {
			return fiber.ErrUnauthorized
		}
		if err := sessions.ValidateSession(c.Context(), *claims.SessionID); err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals(pasetotoken.CtxKeyClaims, claims)
		c.SetContext(reqctx.WithClaims(c.Context(), claims))
		return c.Next()
	}
}
