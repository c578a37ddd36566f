package authorize

import (
	"context"
	"log/slog"
	"time"

	casbin "github.com/casbin/casbin/v2"
)

// AuditedAuthorization logs every decision and policy change of the wrapped
// implementation.
type AuditedAuthorization struct {
	inner  IAuthorization
	logger *slog.Logger
}

func NewAuditedAuthorization(inner IAuthorization, logger *slog.Logger) IAuthorization {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditedAuthorization{inner: inner, logger: logger}
}

func (a *AuditedAuthorization) Enforce(ctx context.Context, subject GroupSubject, object Resource, action Action) (bool, error) {
	start := time.Now()
	allowed, err := a.inner.Enforce(ctx, subject, object, action)

	attrs := []any{
		"subject", string(subject),
		"resource", string(object),
		"action", string(action),
		"allowed", allowed,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	switch {
	case err != nil:
		a.logger.Error("authz_decision", append(attrs, "error", err.Error())...)
	case allowed:
		a.logger.Debug("authz_decision", attrs...)
	default:
		a.logger.Warn("authz_decision", attrs...)
	}
	return allowed, err
}

func (a *AuditedAuthorization) MustEnforce(ctx context.Context, subject GroupSubject, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, subject, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *AuditedAuthorization) AssignRole(ctx context.Context, subject GroupSubject, role Role) (bool, error) {
	added, err := a.inner.AssignRole(ctx, subject, role)
	a.logChange("authz_role_change", err, "operation", "assign_role", "subject", string(subject), "role", string(role), "changed", added)
	return added, err
}

func (a *AuditedAuthorization) RevokeRole(ctx context.Context, subject GroupSubject, role Role) (bool, error) {
	removed, err := a.inner.RevokeRole(ctx, subject, role)
	a.logChange("authz_role_change", err, "operation", "revoke_role", "subject", string(subject), "role", string(role), "changed", removed)
	return removed, err
}

func (a *AuditedAuthorization) RolesFor(ctx context.Context, subject GroupSubject) ([]Role, error) {
	return a.inner.RolesFor(ctx, subject)
}

func (a *AuditedAuthorization) AddPermission(ctx context.Context, p PermissionPolicy) (bool, error) {
	added, err := a.inner.AddPermission(ctx, p)
	a.logChange("authz_permission_change", err, policyAttrs("add_permission", p, added)...)
	return added, err
}

func (a *AuditedAuthorization) RemovePermission(ctx context.Context, p PermissionPolicy) (bool, error) {
	removed, err := a.inner.RemovePermission(ctx, p)
	a.logChange("authz_permission_change", err, policyAttrs("remove_permission", p, removed)...)
	return removed, err
}

func (a *AuditedAuthorization) Raw() *casbin.DistributedEnforcer {
	return a.inner.Raw()
}

func (a *AuditedAuthorization) logChange(msg string, err error, attrs ...any) {
	if err != nil {
		a.logger.Error(msg, append(attrs, "error", err.Error())...)
		return
	}
	a.logger.Info(msg, attrs...)
}

func policyAttrs(op string, p PermissionPolicy, changed bool) []any {
	return []any{
		"operation", op,
		"role", string(p.Subject),
		"domain", string(p.Domain),
		"resource", string(p.Object),
		"action", string(p.Action),
		"effect", string(p.Effect),
		"changed", changed,
	}
}
