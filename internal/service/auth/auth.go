package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/config"
	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/pkg/availability"
	"github.com/Alijeyrad/consulto_backend/pkg/crypto"
	pasetotoken "github.com/Alijeyrad/consulto_backend/pkg/paseto"
	"github.com/Alijeyrad/consulto_backend/pkg/util/password"
	"github.com/Alijeyrad/consulto_backend/pkg/util/phone"
)

const minPasswordLength = 8

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Phone    *string
	// Role defaults to user. Admins are only created from the CLI.
	Role repo.Role
}

type LoginRequest struct {
	Email    string
	Password string
}

type CreateAdminRequest struct {
	Email    string
	Password string
	Name     string
}

type AuthTokens struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int64      `json:"expires_in"` // seconds until the access token expires
	User         *repo.User `json:"user,omitempty"`
}

// RoleGranter mirrors an account role into the authorization layer.
type RoleGranter interface {
	GrantRole(ctx context.Context, userID uuid.UUID, role repo.Role) error
}

type RoleGranterFunc func(ctx context.Context, userID uuid.UUID, role repo.Role) error

func (f RoleGranterFunc) GrantRole(ctx context.Context, userID uuid.UUID, role repo.Role) error {
	return f(ctx, userID, role)
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*repo.User, error)
	Login(ctx context.Context, req LoginRequest) (*AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	// ValidateSession reports ErrSessionNotFound once a session is gone.
	ValidateSession(ctx context.Context, sessionID uuid.UUID) error
	CreateAdmin(ctx context.Context, req CreateAdminRequest) (*repo.User, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type authService struct {
	store    repo.Store
	sessions SessionStore
	tokens   *pasetotoken.Manager
	hasher   *password.Hasher
	roles    RoleGranter
	region   string
}

func New(
	store repo.Store,
	sessions SessionStore,
	tokens *pasetotoken.Manager,
	hasher *password.Hasher,
	roles RoleGranter,
	cfg config.AuthenticationConfig,
) Service {
	if hasher == nil {
		hasher = password.NewHasher(password.Params{})
	}
	if roles == nil {
		roles = RoleGranterFunc(func(context.Context, uuid.UUID, repo.Role) error { return nil })
	}
	return &authService{
		store:    store,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		roles:    roles,
		region:   cfg.DefaultPhoneRegion,
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*repo.User, error) {
	if req.Role == "" {
		req.Role = repo.RoleUser
	}
	if req.Role != repo.RoleUser && req.Role != repo.RoleConsultant {
		return nil, ErrInvalidRole
	}

	u, err := s.newUser(req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		return nil, err
	}
	if u.Phone, err = phone.NormalizeOptional(req.Phone, s.region); err != nil {
		return nil, ErrInvalidPhone
	}
	if u.Role == repo.RoleConsultant {
		u.Consultant = &repo.ConsultantProfile{
			Availability: availability.Schedule{},
			UpdatedAt:    u.CreatedAt,
		}
	}

	if err := s.createWithRole(ctx, u); err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *authService) CreateAdmin(ctx context.Context, req CreateAdminRequest) (*repo.User, error) {
	u, err := s.newUser(req.Email, req.Password, req.Name, repo.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.createWithRole(ctx, u); err != nil {
		return nil, err
	}
	slog.Info("admin created", "user_id", u.ID)
	return u, nil
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthTokens, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := s.hasher.Verify(u.PasswordHash, req.Password); err != nil {
		slog.Warn("login failed", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, u, req.Password)
	}

	return s.createSession(ctx, u)
}

// ---------------------------------------------------------------------------
// Refresh / Logout
// ---------------------------------------------------------------------------

// Refresh rotates both tokens. The presented refresh token stops working.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.tokens.VerifyType(refreshToken, pasetotoken.TokenTypeRefresh)
	if err != nil || claims.SessionID == nil {
		return nil, ErrInvalidToken
	}

	sess, err := s.sessions.Get(ctx, *claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != claims.UserID || sess.RefreshHash != crypto.Hash(refreshToken) {
		return nil, ErrInvalidToken
	}

	u, err := s.store.Users().Get(ctx, sess.UserID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.issue(ctx, u, sess.ID, sess.CreatedAt)
}

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	deleted, err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	if !deleted {
		slog.Debug("logout: session already expired", "session_id", sessionID)
	}
	return nil
}

func (s *authService) ValidateSession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := s.sessions.Get(ctx, sessionID)
	return err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *authService) newUser(email, pass, name string, role repo.Role) (*repo.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if len(pass) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	return &repo.User{
		ID:           uuid.Must(uuid.NewV7()),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// createWithRole inserts the user and grants the casbin role in one
// transaction. A failed grant rolls the insert back.
func (s *authService) createWithRole(ctx context.Context, u *repo.User) error {
	return s.store.InTx(ctx, func(tx repo.Store) error {
		if _, err := tx.Users().GetByEmail(ctx, u.Email); err == nil {
			return ErrEmailExists
		} else if !repo.IsNotFound(err) {
			return fmt.Errorf("check email: %w", err)
		}
		if err := tx.Users().Create(ctx, u); err != nil {
			if repo.IsConflict(err) {
				return ErrEmailExists
			}
			return fmt.Errorf("create user: %w", err)
		}
		if err := tx.AuditLogs().Create(ctx, repo.NewAuditLog(u.ID, "user.registered", "user", u.ID, map[string]any{"role": string(u.Role)})); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		if err := s.roles.GrantRole(ctx, u.ID, u.Role); err != nil {
			return fmt.Errorf("grant role: %w", err)
		}
		return nil
	})
}

func (s *authService) createSession(ctx context.Context, u *repo.User) (*AuthTokens, error) {
	return s.issue(ctx, u, uuid.Must(uuid.NewV7()), time.Now().UTC())
}

// issue mints a token pair for the session and stores the refresh hash.
func (s *authService) issue(ctx context.Context, u *repo.User, sessionID uuid.UUID, createdAt time.Time) (*AuthTokens, error) {
	p := pasetotoken.Principal{UserID: u.ID, Role: string(u.Role), SessionID: sessionID}

	access, err := s.tokens.IssueAccess(p)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(p)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	sess := &Session{
		ID:          sessionID,
		UserID:      u.ID,
		Role:        string(u.Role),
		RefreshHash: crypto.Hash(refresh),
		CreatedAt:   createdAt,
	}
	if err := s.sessions.Save(ctx, sess, s.tokens.RefreshTTL()); err != nil {
		return nil, err
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         u,
	}, nil
}

// rehash upgrades a stored hash to the current parameters. Failures are
// logged; the login itself already succeeded.
func (s *authService) rehash(ctx context.Context, u *repo.User, pass string) {
	hash, err := s.hasher.Hash(pass)
	if err != nil {
		slog.Warn("password rehash failed", "user_id", u.ID, "error", err)
		return
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	if err := s.store.Users().UpdateIdentity(ctx, u); err != nil {
		slog.Warn("password rehash not saved", "user_id", u.ID, "error", err)
	}
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidEmail
	}
	return raw, nil
}

// IsConflict reports errors that map to 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailExists)
}
