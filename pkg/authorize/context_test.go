package authorize

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/pkg/reqctx"
)

type testClaims struct {
	id   uuid.UUID
	role string
}

func (c testClaims) GetUserID() uuid.UUID     { return c.id }
func (c testClaims) GetRole() string          { return c.role }
func (c testClaims) GetSessionID() *uuid.UUID { return nil }
func (c testClaims) GetTokenType() string     { return "access" }
func (c testClaims) IsExpired() bool          { return false }

func TestSubjectFromContext(t *testing.T) {
	if _, err := SubjectFromContext(context.Background()); err != ErrNoSubjectInContext {
		t.Errorf("empty context error = %v", err)
	}

	nilID := reqctx.WithClaims(context.Background(), testClaims{})
	if _, err := SubjectFromContext(nilID); err != ErrNoSubjectInContext {
		t.Errorf("nil user id error = %v", err)
	}

	id := uuid.New()
	ctx := reqctx.WithClaims(context.Background(), testClaims{id: id, role: "user"})
	got, err := SubjectFromContext(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != GroupSubject(id.String()) {
		t.Errorf("SubjectFromContext() = %q", got)
	}
}
