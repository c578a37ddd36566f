package authorize

import (
	"context"
	"fmt"
	"log/slog"
)

// defaultPolicies is the baseline role matrix. Ownership checks (is this my
// booking?) happen in the services; casbin answers "may this role ever do it".
var defaultPolicies = []PermissionPolicy{
	{RoleAdmin, DomainSys, WildcardResource, WildcardAction, EffectAllow},

	// Shared by every signed-in account
	{RoleUser, DomainSys, ResourceUser, ActionRead, EffectAllow},
	{RoleUser, DomainSys, ResourceUser, ActionUpdate, EffectAllow},
	{RoleUser, DomainSys, ResourceAuthSession, ActionManage, EffectAllow},
	{RoleUser, DomainSys, ResourceConsultant, ActionRead, EffectAllow},
	{RoleUser, DomainSys, ResourceAvailability, ActionRead, EffectAllow},
	{RoleConsultant, DomainSys, ResourceUser, ActionRead, EffectAllow},
	{RoleConsultant, DomainSys, ResourceUser, ActionUpdate, EffectAllow},
	{RoleConsultant, DomainSys, ResourceAuthSession, ActionManage, EffectAllow},
	{RoleConsultant, DomainSys, ResourceConsultant, ActionRead, EffectAllow},
	{RoleConsultant, DomainSys, ResourceAvailability, ActionRead, EffectAllow},

	// Customers book, chat, review and keep their health records
	{RoleUser, DomainSys, ResourceBooking, ActionCreate, EffectAllow},
	{RoleUser, DomainSys, ResourceBooking, ActionRead, EffectAllow},
	{RoleUser, DomainSys, ResourceBooking, ActionList, EffectAllow},
	{RoleUser, DomainSys, ResourceBooking, ActionCancel, EffectAllow},
	{RoleUser, DomainSys, ResourceChatRequest, ActionCreate, EffectAllow},
	{RoleUser, DomainSys, ResourceChatRequest, ActionRead, EffectAllow},
	{RoleUser, DomainSys, ResourceChatRequest, ActionList, EffectAllow},
	{RoleUser, DomainSys, ResourceMessage, ActionCreate, EffectAllow},
	{RoleUser, DomainSys, ResourceMessage, ActionRead, EffectAllow},
	{RoleUser, DomainSys, ResourceReview, ActionCreate, EffectAllow},
	{RoleUser, DomainSys, ResourceHealthRecord, ActionCreate, EffectAllow},
	{RoleUser, DomainSys, ResourceHealthRecord, ActionRead, EffectAllow},

	// Consultants answer bookings and chats and maintain their profile
	{RoleConsultant, DomainSys, ResourceConsultant, ActionUpdate, EffectAllow},
	{RoleConsultant, DomainSys, ResourceAvailability, ActionUpdate, EffectAllow},
	{RoleConsultant, DomainSys, ResourceBooking, ActionRead, EffectAllow},
	{RoleConsultant, DomainSys, ResourceBooking, ActionList, EffectAllow},
	{RoleConsultant, DomainSys, ResourceBooking, ActionAccept, EffectAllow},
	{RoleConsultant, DomainSys, ResourceBooking, ActionReject, EffectAllow},
	{RoleConsultant, DomainSys, ResourceBooking, ActionCancel, EffectAllow},
	{RoleConsultant, DomainSys, ResourceChatRequest, ActionRespond, EffectAllow},
	{RoleConsultant, DomainSys, ResourceChatRequest, ActionRead, EffectAllow},
	{RoleConsultant, DomainSys, ResourceChatRequest, ActionList, EffectAllow},
	{RoleConsultant, DomainSys, ResourceMessage, ActionCreate, EffectAllow},
	{RoleConsultant, DomainSys, ResourceMessage, ActionRead, EffectAllow},
	{RoleConsultant, DomainSys, ResourceHealthRecord, ActionRead, EffectAllow},
}

// DefaultPolicies returns a copy of the baseline policy set.
func DefaultPolicies() []PermissionPolicy {
	return append([]PermissionPolicy(nil), defaultPolicies...)
}

// SeedDefaultPolicies adds the baseline policies. Existing rows are left alone.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	added := 0
	for _, p := range defaultPolicies {
		ok, err := auth.AddPermission(ctx, p)
		if err != nil {
			slog.Error("failed to add policy", "role", p.Subject, "resource", p.Object, "action", p.Action, "error", err)
			return err
		}
		if ok {
			added++
		}
	}
	slog.Info("seeded default RBAC policies", "total", len(defaultPolicies), "added", added)
	return nil
}

// AssignAccountRole grants the casbin role matching the stored account role.
func AssignAccountRole(ctx context.Context, auth IAuthorization, userID, accountRole string) error {
	role, ok := RoleForAccount(accountRole)
	if !ok {
		return fmt.Errorf("%w: unknown account role %q", ErrInvalidArgs, accountRole)
	}
	_, err := auth.AssignRole(ctx, GroupSubject(userID), role)
	return err
}
