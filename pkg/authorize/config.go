package authorize

import "github.com/Alijeyrad/consulto_backend/config"

type Config struct {
	CasbinModelPath string

	// EnableAudit logs every authorization decision.
	EnableAudit bool

	// AdminBypass lets RoleAdmin skip policy evaluation.
	AdminBypass bool

	// PolicySyncEnabled starts the Postgres watcher so policy edits reach
	// every instance.
	PolicySyncEnabled bool
}

func DefaultConfig() Config {
	return Config{
		CasbinModelPath: "casbin_model.conf",
		EnableAudit:     false,
		AdminBypass:     true,
	}
}

func FromCentralConfig(c config.AuthorizationConfig) Config {
	out := Config{
		CasbinModelPath:   c.CasbinModelPath,
		EnableAudit:       c.EnableAudit,
		AdminBypass:       c.AdminBypass,
		PolicySyncEnabled: c.PolicySyncEnabled,
	}
	if out.CasbinModelPath == "" {
		out.CasbinModelPath = DefaultConfig().CasbinModelPath
	}
	return out
}
