package authorize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	casbin "github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/pkg/reqctx"
)

// createTestEnforcer builds a file-backed enforcer using the repository model.
func createTestEnforcer(t *testing.T) *casbin.DistributedEnforcer {
	t.Helper()

	tmpDir := t.TempDir()
	policyPath := filepath.Join(tmpDir, "policy.csv")
	if err := os.WriteFile(policyPath, []byte(""), 0o644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	e, err := casbin.NewDistributedEnforcer(filepath.Join("..", "..", "casbin_model.conf"), fileadapter.NewAdapter(policyPath))
	if err != nil {
		t.Fatalf("failed to create enforcer: %v", err)
	}
	e.EnableAutoSave(false)
	e.EnableEnforce(true)
	return e
}

func seededAuth(t *testing.T, opts ...Option) IAuthorization {
	t.Helper()
	auth, err := NewAuthorization(createTestEnforcer(t), opts...)
	if err != nil {
		t.Fatalf("NewAuthorization: %v", err)
	}
	if err := SeedDefaultPolicies(context.Background(), auth); err != nil {
		t.Fatalf("SeedDefaultPolicies: %v", err)
	}
	return auth
}

func TestNewAuthorization(t *testing.T) {
	if _, err := NewAuthorization(nil); err == nil {
		t.Error("expected error for nil enforcer")
	}
	if _, err := NewAuthorization(createTestEnforcer(t)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRoleMatrix(t *testing.T) {
	auth := seededAuth(t)
	ctx := context.Background()

	user := GroupSubject(uuid.NewString())
	consultant := GroupSubject(uuid.NewString())
	admin := GroupSubject(uuid.NewString())
	for subject, role := range map[GroupSubject]string{user: "user", consultant: "consultant", admin: "admin"} {
		if err := AssignAccountRole(ctx, auth, string(subject), role); err != nil {
			t.Fatalf("AssignAccountRole(%s): %v", role, err)
		}
	}

	tests := []struct {
		name     string
		subject  GroupSubject
		resource Resource
		action   Action
		want     bool
	}{
		{"user creates booking", user, ResourceBooking, ActionCreate, true},
		{"user cancels booking", user, ResourceBooking, ActionCancel, true},
		{"user cannot accept booking", user, ResourceBooking, ActionAccept, false},
		{"user opens chat", user, ResourceChatRequest, ActionCreate, true},
		{"user cannot answer chat", user, ResourceChatRequest, ActionRespond, false},
		{"user posts review", user, ResourceReview, ActionCreate, true},
		{"user cannot read audit", user, ResourceAudit, ActionRead, false},
		{"consultant accepts booking", consultant, ResourceBooking, ActionAccept, true},
		{"consultant rejects booking", consultant, ResourceBooking, ActionReject, true},
		{"consultant cannot create booking", consultant, ResourceBooking, ActionCreate, false},
		{"consultant answers chat", consultant, ResourceChatRequest, ActionRespond, true},
		{"consultant updates availability", consultant, ResourceAvailability, ActionUpdate, true},
		{"consultant cannot review", consultant, ResourceReview, ActionCreate, false},
		{"manage covers every action", user, ResourceAuthSession, ActionUpdate, true},
		{"admin reads audit", admin, ResourceAudit, ActionRead, true},
		{"admin approves consultant", admin, ResourceConsultant, ActionApprove, true},
		{"unknown subject", GroupSubject(uuid.NewString()), ResourceBooking, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, tt.subject, tt.resource, tt.action)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforceRejectsBadArguments(t *testing.T) {
	auth := seededAuth(t)
	ctx := context.Background()

	if _, err := auth.Enforce(ctx, "", ResourceBooking, ActionRead); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("empty subject error = %v", err)
	}
	if _, err := auth.Enforce(ctx, "u", Resource("nope"), ActionRead); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("unknown resource error = %v", err)
	}
	if _, err := auth.Enforce(ctx, "u", ResourceBooking, Action("nope")); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("unknown action error = %v", err)
	}
}

func TestMustEnforce(t *testing.T) {
	auth := seededAuth(t)
	ctx := context.Background()
	subject := GroupSubject(uuid.NewString())
	if _, err := auth.AssignRole(ctx, subject, RoleUser); err != nil {
		t.Fatal(err)
	}

	if err := auth.MustEnforce(ctx, subject, ResourceBooking, ActionCreate); err != nil {
		t.Errorf("MustEnforce() allowed = %v", err)
	}
	if err := auth.MustEnforce(ctx, subject, ResourceAudit, ActionList); !errors.Is(err, ErrForbidden) {
		t.Errorf("MustEnforce() denied = %v, want ErrForbidden", err)
	}
}

func TestAdminBypass(t *testing.T) {
	// No policies at all: only the bypass can allow.
	auth, err := NewAuthorization(createTestEnforcer(t), WithAdminBypass())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	admin := GroupSubject(uuid.NewString())
	if _, err := auth.AssignRole(ctx, admin, RoleAdmin); err != nil {
		t.Fatal(err)
	}

	ok, err := auth.Enforce(ctx, admin, ResourceSystem, ActionManage)
	if err != nil || !ok {
		t.Errorf("admin bypass Enforce() = %v, %v", ok, err)
	}
}

func TestRoleAssignment(t *testing.T) {
	auth := seededAuth(t)
	ctx := context.Background()
	subject := GroupSubject(uuid.NewString())

	if _, err := auth.AssignRole(ctx, subject, Role("role:ghost")); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("unknown role error = %v", err)
	}
	if err := AssignAccountRole(ctx, auth, string(subject), "superuser"); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("unknown account role error = %v", err)
	}

	if _, err := auth.AssignRole(ctx, subject, RoleConsultant); err != nil {
		t.Fatal(err)
	}
	roles, err := auth.RolesFor(ctx, subject)
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 1 || roles[0] != RoleConsultant {
		t.Errorf("RolesFor() = %v", roles)
	}

	removed, err := auth.RevokeRole(ctx, subject, RoleConsultant)
	if err != nil || !removed {
		t.Fatalf("RevokeRole() = %v, %v", removed, err)
	}
	if ok, _ := auth.Enforce(ctx, subject, ResourceBooking, ActionAccept); ok {
		t.Error("revoked role still allowed")
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	auth := seededAuth(t)
	if err := SeedDefaultPolicies(context.Background(), auth); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	for _, p := range DefaultPolicies() {
		added, err := auth.AddPermission(context.Background(), p)
		if err != nil || added {
			t.Errorf("AddPermission(%+v) = %v, %v; want existing", p, added, err)
		}
	}
}

func TestEnforceFromContext(t *testing.T) {
	auth := seededAuth(t)
	ctx := context.Background()

	if err := EnforceFromContext(ctx, auth, ResourceBooking, ActionCreate); !errors.Is(err, ErrNoSubjectInContext) {
		t.Errorf("missing claims error = %v", err)
	}

	id := uuid.New()
	if _, err := auth.AssignRole(ctx, GroupSubject(id.String()), RoleUser); err != nil {
		t.Fatal(err)
	}
	ctx = reqctx.WithClaims(ctx, testClaims{id: id})
	if err := EnforceFromContext(ctx, auth, ResourceBooking, ActionCreate); err != nil {
		t.Errorf("EnforceFromContext() = %v", err)
	}
}

func TestAuditedAuthorizationDelegates(t *testing.T) {
	inner := seededAuth(t)
	auth := NewAuditedAuthorization(inner, nil)
	ctx := context.Background()
	subject := GroupSubject(uuid.NewString())

	if _, err := auth.AssignRole(ctx, subject, RoleConsultant); err != nil {
		t.Fatal(err)
	}
	if err := auth.MustEnforce(ctx, subject, ResourceBooking, ActionAccept); err != nil {
		t.Errorf("MustEnforce() = %v", err)
	}
	if err := auth.MustEnforce(ctx, subject, ResourceAudit, ActionRead); !errors.Is(err, ErrForbidden) {
		t.Errorf("MustEnforce() = %v, want ErrForbidden", err)
	}
}
