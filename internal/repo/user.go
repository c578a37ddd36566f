package repo

import (
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/pkg/availability"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleConsultant Role = "consultant"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleConsultant, RoleAdmin:
		return true
	}
	return false
}

// User is the shared identity core. Role-specific data hangs off it: only
// consultants carry a Consultant profile.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        *string   `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Consultant *ConsultantProfile `json:"consultant,omitempty"`
}

// ConsultantProfile is owned by a consultant User and stored in its own table.
type ConsultantProfile struct {
	Specialty      string                `json:"specialty"`
	Qualifications string                `json:"qualifications"`
	Bio            string                `json:"bio"`
	Availability   availability.Schedule `json:"availability"`
	IsApproved     bool                  `json:"is_approved"`
	// BankAccount holds AES-GCM ciphertext; never serialised.
	BankAccount *string   `json:"-"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Kind is the closed set of user variants.
type Kind interface {
	isKind()
}

type Customer struct{ *User }

type Consultant struct {
	*User
	Profile *ConsultantProfile
}

type Admin struct{ *User }

func (Customer) isKind()   {}
func (Consultant) isKind() {}
func (Admin) isKind()      {}

// Kind resolves the variant for the user's role. A consultant without a
// stored profile gets an empty, unapproved one.
func (u *User) Kind() Kind {
	switch u.Role {
	case RoleConsultant:
		p := u.Consultant
		if p == nil {
			p = &ConsultantProfile{Availability: availability.Schedule{}}
		}
		return Consultant{User: u, Profile: p}
	case RoleAdmin:
		return Admin{User: u}
	default:
		return Customer{User: u}
	}
}

// AsConsultant returns the consultant variant, if the user is one.
func (u *User) AsConsultant() (Consultant, bool) {
	c, ok := u.Kind().(Consultant)
	return c, ok
}

// IsBookable reports whether the user is an approved consultant.
func (u *User) IsBookable() bool {
	c, ok := u.AsConsultant()
	return ok && c.Profile.IsApproved
}

// Actor is the authenticated caller as carried by the access token.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
