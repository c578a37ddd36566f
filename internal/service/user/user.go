package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/pkg/availability"
	"github.com/Alijeyrad/consulto_backend/pkg/crypto"
	"github.com/Alijeyrad/consulto_backend/pkg/util/phone"
)

const (
	maxNameLength  = 100
	maxShortField  = 200
	maxBioLength   = 2000
	entityUser     = "user"
	entityProfile  = "consultant_profile"
	minBankAccount = 8
	maxBankAccount = 34
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Me is the caller's own account. BankAccount is masked.
type Me struct {
	User        *repo.User `json:"user"`
	BankAccount string     `json:"bank_account,omitempty"`
}

// UpdateProfileRequest leaves nil fields unchanged. An empty Phone clears it.
type UpdateProfileRequest struct {
	UserID uuid.UUID
	Name   *string
	Phone  *string
}

// UpdateConsultantProfileRequest leaves nil fields unchanged. Availability,
// when set, replaces the whole schedule.
type UpdateConsultantProfileRequest struct {
	UserID         uuid.UUID
	Specialty      *string
	Qualifications *string
	Bio            *string
	Availability   json.RawMessage
	BankAccount    *string
}

type ListConsultantsRequest struct {
	Specialty string
	Page      repo.Page
}

// OpenSlots is the bookable remainder of a consultant's day.
type OpenSlots struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	GetMe(ctx context.Context, id uuid.UUID) (*Me, error)
	UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*Me, error)
	UpdateConsultantProfile(ctx context.Context, req UpdateConsultantProfileRequest) (*Me, error)

	ListConsultants(ctx context.Context, req ListConsultantsRequest) ([]*repo.User, error)
	GetConsultant(ctx context.Context, id uuid.UUID) (*repo.User, error)
	GetAvailability(ctx context.Context, id uuid.UUID) (availability.Schedule, error)
	OpenSlots(ctx context.Context, id uuid.UUID, date string) (*OpenSlots, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type userService struct {
	store  repo.Store
	cipher *crypto.Cipher
	region string
}

// New builds the service. A nil cipher disables bank account updates.
func New(store repo.Store, cipher *crypto.Cipher, phoneRegion string) Service {
	return &userService{store: store, cipher: cipher, region: phoneRegion}
}

func (s *userService) GetMe(ctx context.Context, id uuid.UUID) (*Me, error) {
	u, err := s.getUser(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	return s.me(u), nil
}

func (s *userService) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*Me, error) {
	var u *repo.User
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		var err error
		if u, err = s.getUser(ctx, tx, req.UserID); err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return ErrNameRequired
			}
			if utf8.RuneCountInString(name) > maxNameLength {
				return ErrFieldTooLong
			}
			u.Name = name
		}
		if req.Phone != nil {
			if u.Phone, err = phone.NormalizeOptional(req.Phone, s.region); err != nil {
				return ErrInvalidPhone
			}
		}
		u.UpdatedAt = time.Now().UTC()

		if err := tx.Users().UpdateIdentity(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return tx.AuditLogs().Create(ctx, repo.NewAuditLog(u.ID, "user.updated", entityUser, u.ID, nil))
	})
	if err != nil {
		return nil, err
	}
	return s.me(u), nil
}

func (s *userService) UpdateConsultantProfile(ctx context.Context, req UpdateConsultantProfileRequest) (*Me, error) {
	var sched availability.Schedule
	if req.Availability != nil {
		var err error
		if sched, err = availability.Parse(req.Availability); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
	}

	var u *repo.User
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		var err error
		if u, err = s.getUser(ctx, tx, req.UserID); err != nil {
			return err
		}
		c, ok := u.AsConsultant()
		if !ok {
			return ErrNotConsultant
		}

		p := *c.Profile
		if err := setText(&p.Specialty, req.Specialty, maxShortField); err != nil {
			return err
		}
		if err := setText(&p.Qualifications, req.Qualifications, maxShortField); err != nil {
			return err
		}
		if err := setText(&p.Bio, req.Bio, maxBioLength); err != nil {
			return err
		}
		if sched != nil {
			p.Availability = sched
		}
		if req.BankAccount != nil {
			if p.BankAccount, err = s.sealBankAccount(*req.BankAccount); err != nil {
				return err
			}
		}
		p.UpdatedAt = time.Now().UTC()

		if err := tx.Users().SaveConsultantProfile(ctx, u.ID, &p); err != nil {
			return fmt.Errorf("save consultant profile: %w", err)
		}
		u.Consultant = &p

		details := map[string]any{"availability_changed": sched != nil, "bank_account_changed": req.BankAccount != nil}
		return tx.AuditLogs().Create(ctx, repo.NewAuditLog(u.ID, "consultant.profile_updated", entityProfile, u.ID, details))
	})
	if err != nil {
		return nil, err
	}

	slog.Info("consultant profile updated", "user_id", u.ID)
	return s.me(u), nil
}

func (s *userService) ListConsultants(ctx context.Context, req ListConsultantsRequest) ([]*repo.User, error) {
	approved := true
	list, err := s.store.Users().ListConsultants(ctx, repo.ConsultantFilter{
		Approved:  &approved,
		Specialty: strings.TrimSpace(req.Specialty),
		Page:      req.Page.Normalize(),
	})
	if err != nil {
		return nil, fmt.Errorf("list consultants: %w", err)
	}
	return list, nil
}

// GetConsultant returns approved consultants only.
func (s *userService) GetConsultant(ctx context.Context, id uuid.UUID) (*repo.User, error) {
	u, err := s.store.Users().Get(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrConsultantNotFound
		}
		return nil, fmt.Errorf("get consultant: %w", err)
	}
	if !u.IsBookable() {
		return nil, ErrConsultantNotFound
	}
	return u, nil
}

func (s *userService) GetAvailability(ctx context.Context, id uuid.UUID) (availability.Schedule, error) {
	u, err := s.GetConsultant(ctx, id)
	if err != nil {
		return nil, err
	}
	c, _ := u.AsConsultant()
	if c.Profile.Availability == nil {
		return availability.Schedule{}, nil
	}
	return c.Profile.Availability, nil
}

// OpenSlots lists the generated slots for date minus every slot that
// already has a booking, whatever its status.
func (s *userService) OpenSlots(ctx context.Context, id uuid.UUID, date string) (*OpenSlots, error) {
	day, err := availability.ParseDate(date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	sched, err := s.GetAvailability(ctx, id)
	if err != nil {
		return nil, err
	}

	taken, err := s.store.Bookings().RequestedSlots(ctx, id, date)
	if err != nil {
		return nil, fmt.Errorf("requested slots: %w", err)
	}
	slots := availability.Without(sched.Slots(day), taken)
	if slots == nil {
		slots = []string{}
	}
	return &OpenSlots{Date: date, Slots: slots}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *userService) getUser(ctx context.Context, st repo.Store, id uuid.UUID) (*repo.User, error) {
	u, err := st.Users().Get(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *userService) me(u *repo.User) *Me {
	out := &Me{User: u}
	if u.Consultant == nil || u.Consultant.BankAccount == nil || s.cipher == nil {
		return out
	}
	plain, err := s.cipher.Decrypt(*u.Consultant.BankAccount)
	if err != nil {
		slog.Warn("bank account decrypt failed", "user_id", u.ID, "error", err)
		return out
	}
	out.BankAccount = crypto.Mask(plain)
	return out
}

// sealBankAccount validates and encrypts raw. An empty value clears it.
func (s *userService) sealBankAccount(raw string) (*string, error) {
	raw = strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if raw == "" {
		return nil, nil
	}
	if s.cipher == nil {
		return nil, ErrEncryptionDisabled
	}
	if n := len(raw); n < minBankAccount || n > maxBankAccount {
		return nil, ErrInvalidBankAccount
	}
	for _, r := range raw {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return nil, ErrInvalidBankAccount
		}
	}
	sealed, err := s.cipher.Encrypt(raw)
	if err != nil {
		return nil, fmt.Errorf("encrypt bank account: %w", err)
	}
	return &sealed, nil
}

func setText(dst *string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	text := strings.TrimSpace(*v)
	if utf8.RuneCountInString(text) > limit {
		return ErrFieldTooLong
	}
	*dst = text
	return nil
}

// IsInvalid reports validation errors that map to 400.
func IsInvalid(err error) bool {
	for _, target := range []error{ErrNameRequired, ErrInvalidPhone, ErrInvalidSchedule, ErrInvalidDate, ErrInvalidBankAccount, ErrFieldTooLong} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
