package authorize

type Action string
type Resource string
type Role string
type Domain string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionList   Action = "list"

	// ActionManage covers every other action on the resource.
	ActionManage Action = "manage"

	// Booking lifecycle
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
	ActionCancel Action = "cancel"

	// ActionRespond answers a chat request.
	ActionRespond Action = "respond"
	ActionApprove Action = "approve"
)

const (
	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionList: {}, ActionManage: {},
	ActionAccept: {}, ActionReject: {}, ActionCancel: {},
	ActionRespond: {}, ActionApprove: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	ResourceUser        Resource = "user"
	ResourceAuthSession Resource = "auth_session"
	ResourceConsultant  Resource = "consultant"

	ResourceBooking      Resource = "booking"
	ResourceAvailability Resource = "availability"

	ResourceChatRequest Resource = "chat_request"
	ResourceMessage     Resource = "message"

	ResourceReview       Resource = "review"
	ResourceHealthRecord Resource = "health_record"

	ResourceAudit  Resource = "audit"
	ResourceRBAC   Resource = "rbac"
	ResourceSystem Resource = "system"
)

var KnownResources = map[Resource]struct{}{
	ResourceUser: {}, ResourceAuthSession: {}, ResourceConsultant: {},
	ResourceBooking: {}, ResourceAvailability: {},
	ResourceChatRequest: {}, ResourceMessage: {},
	ResourceReview: {}, ResourceHealthRecord: {},
	ResourceAudit: {}, ResourceRBAC: {}, ResourceSystem: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// Policy subjects assigned to users through grouping policies in DomainSys.

const (
	WildcardRole Role = "*"

	RoleUser       Role = "role:user"
	RoleConsultant Role = "role:consultant"
	RoleAdmin      Role = "role:admin"
)

var KnownRoles = map[Role]struct{}{
	RoleUser:       {},
	RoleConsultant: {},
	RoleAdmin:      {},
}

// accountRoles maps the users.role column to casbin roles.
var accountRoles = map[string]Role{
	"user":       RoleUser,
	"consultant": RoleConsultant,
	"admin":      RoleAdmin,
}

// RoleForAccount returns the casbin role for a stored account role.
func RoleForAccount(accountRole string) (Role, bool) {
	r, ok := accountRoles[accountRole]
	return r, ok
}

// ----------------------------
// Domains
// ----------------------------

// Every policy lives in the platform domain; the model keeps a domain column
// so scoped roles can be added later without a migration.
const (
	DomainSys      Domain = "sys"
	WildcardDomain Domain = "*"
)

func IsValidDomain(d Domain) bool {
	return d == DomainSys || d == WildcardDomain
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// GroupSubject is the g.sub in Casbin: a user id.
type GroupSubject string

// Grouping rows: g, user_id, role, domain
type GroupingPolicy struct {
	Subject GroupSubject
	Role    Role
	Domain  Domain
}

// Permission rows: p, role, domain, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
