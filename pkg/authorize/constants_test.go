package authorize

import "testing"

func TestIsValidDomain(t *testing.T) {
	tests := []struct {
		domain Domain
		want   bool
	}{
		{DomainSys, true},
		{WildcardDomain, true},
		{Domain(""), false},
		{Domain("clinic:550e8400-e29b-41d4-a716-446655440000"), false},
	}
	for _, tt := range tests {
		if got := IsValidDomain(tt.domain); got != tt.want {
			t.Errorf("IsValidDomain(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}
}

func TestRoleForAccount(t *testing.T) {
	for account, want := range map[string]Role{"user": RoleUser, "consultant": RoleConsultant, "admin": RoleAdmin} {
		got, ok := RoleForAccount(account)
		if !ok || got != want {
			t.Errorf("RoleForAccount(%q) = %q, %v", account, got, ok)
		}
	}
	if _, ok := RoleForAccount("root"); ok {
		t.Error("RoleForAccount(root) should be unknown")
	}
}

func TestDefaultPoliciesUseKnownValues(t *testing.T) {
	for _, p := range DefaultPolicies() {
		if err := p.validate(); err != nil {
			t.Errorf("policy %+v: %v", p, err)
		}
	}
}
