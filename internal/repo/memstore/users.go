package memstore

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
)

type users struct{ v *view }

func (r users) Create(_ context.Context, u *repo.User) error {
	return r.v.write("users.create", func(db *state) error {
		for _, existing := range db.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return repo.ErrConflict
			}
		}
		row := *u
		row.Consultant = nil
		db.users[u.ID] = row
		if u.Consultant != nil {
			db.profiles[u.ID] = *u.Consultant
		}
		return nil
	})
}

func (r users) Get(_ context.Context, id uuid.UUID) (*repo.User, error) {
	var out *repo.User
	err := r.v.read(func(db *state) error {
		u, ok := db.users[id]
		if !ok {
			return repo.ErrNotFound
		}
		out = withProfile(db, u)
		return nil
	})
	return out, err
}

func (r users) GetByEmail(_ context.Context, email string) (*repo.User, error) {
	var out *repo.User
	err := r.v.read(func(db *state) error {
		for _, u := range db.users {
			if strings.EqualFold(u.Email, email) {
				out = withProfile(db, u)
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (r users) UpdateIdentity(_ context.Context, u *repo.User) error {
	return r.v.write("users.update", func(db *state) error {
		row, ok := db.users[u.ID]
		if !ok {
			return repo.ErrNotFound
		}
		row.Name = u.Name
		row.Phone = u.Phone
		row.PasswordHash = u.PasswordHash
		row.UpdatedAt = u.UpdatedAt
		db.users[u.ID] = row
		return nil
	})
}

func (r users) SaveConsultantProfile(_ context.Context, userID uuid.UUID, p *repo.ConsultantProfile) error {
	return r.v.write("users.save_profile", func(db *state) error {
		if _, ok := db.users[userID]; !ok {
			return repo.ErrNotFound
		}
		row := *p
		if old, ok := db.profiles[userID]; ok {
			row.IsApproved = old.IsApproved
		}
		db.profiles[userID] = row
		return nil
	})
}

func (r users) SetApproved(_ context.Context, userID uuid.UUID, approved bool) error {
	return r.v.write("users.set_approved", func(db *state) error {
		p, ok := db.profiles[userID]
		if !ok {
			return repo.ErrNotFound
		}
		p.IsApproved = approved
		p.UpdatedAt = time.Now().UTC()
		db.profiles[userID] = p
		return nil
	})
}

func (r users) ListConsultants(_ context.Context, f repo.ConsultantFilter) ([]*repo.User, error) {
	var out []*repo.User
	err := r.v.read(func(db *state) error {
		for _, u := range db.users {
			if u.Role != repo.RoleConsultant {
				continue
			}
			p := db.profiles[u.ID]
			if f.Approved != nil && p.IsApproved != *f.Approved {
				continue
			}
			if f.Specialty != "" && !strings.EqualFold(p.Specialty, f.Specialty) {
				continue
			}
			out = append(out, withProfile(db, u))
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *repo.User) int { return strings.Compare(a.Name, b.Name) })
	return paginate(out, f.Page), err
}

func (r users) LockConsultant(_ context.Context, id uuid.UUID) error {
	return r.v.read(func(db *state) error {
		if _, ok := db.users[id]; !ok {
			return repo.ErrNotFound
		}
		return nil
	})
}

func withProfile(db *state, u repo.User) *repo.User {
	if p, ok := db.profiles[u.ID]; ok {
		u.Consultant = &p
	}
	return &u
}
