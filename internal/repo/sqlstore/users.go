package sqlstore

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/pkg/availability"
)

const (
	usersTable    = "users"
	profilesTable = "consultant_profiles"
)

type users struct{ s *Store }

func (r users) Create(ctx context.Context, u *repo.User) error {
	return r.s.InTx(ctx, func(tx repo.Store) error {
		ts := tx.(*Store)
		_, err := ts.exec(ctx, pg.Insert(usersTable).
			Columns("id", "email", "name", "phone", "password_hash", "role", "created_at", "updated_at").
			Values(u.ID, strings.ToLower(u.Email), u.Name, nullString(u.Phone), u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if u.Consultant != nil {
			return ts.Users().SaveConsultantProfile(ctx, u.ID, u.Consultant)
		}
		return nil
	})
}

func (r users) Get(ctx context.Context, id uuid.UUID) (*repo.User, error) {
	return r.one(ctx, func(u *sql.SelectTable) *sql.Predicate { return sql.EQ(u.C("id"), id) })
}

func (r users) GetByEmail(ctx context.Context, email string) (*repo.User, error) {
	return r.one(ctx, func(u *sql.SelectTable) *sql.Predicate {
		return sql.EQ(u.C("email"), strings.ToLower(strings.TrimSpace(email)))
	})
}

func (r users) UpdateIdentity(ctx context.Context, u *repo.User) error {
	n, err := r.s.exec(ctx, pg.Update(usersTable).
		Set("name", u.Name).
		Set("phone", nullString(u.Phone)).
		Set("password_hash", u.PasswordHash).
		Set("updated_at", u.UpdatedAt).
		Where(sql.EQ("id", u.ID)))
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r users) SaveConsultantProfile(ctx context.Context, userID uuid.UUID, p *repo.ConsultantProfile) error {
	sched := p.Availability
	if sched == nil {
		sched = availability.Schedule{}
	}
	raw, err := json.Marshal(sched)
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	_, err = r.s.exec(ctx, profileUpsert(userID, p, string(raw), updated))
	if err != nil {
		return fmt.Errorf("upsert consultant profile: %w", err)
	}
	return nil
}

// profileUpsert leaves is_approved alone on conflict so a concurrent
// approval is not overwritten by a stale read.
func profileUpsert(userID uuid.UUID, p *repo.ConsultantProfile, sched string, updated time.Time) *sql.InsertBuilder {
	return pg.Insert(profilesTable).
		Columns("user_id", "specialty", "qualifications", "bio", "availability", "is_approved", "bank_account", "updated_at").
		Values(userID, p.Specialty, p.Qualifications, p.Bio, sched, p.IsApproved, nullString(p.BankAccount), updated).
		OnConflict(sql.ConflictColumns("user_id"), sql.ResolveWith(func(u *sql.UpdateSet) {
			for _, col := range []string{"specialty", "qualifications", "bio", "availability", "bank_account", "updated_at"} {
				u.SetExcluded(col)
			}
		}))
}

func (r users) SetApproved(ctx context.Context, userID uuid.UUID, approved bool) error {
	n, err := r.s.exec(ctx, pg.Update(profilesTable).
		Set("is_approved", approved).
		Set("updated_at", time.Now().UTC()).
		Where(sql.EQ("user_id", userID)))
	if err != nil {
		return fmt.Errorf("set approved: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r users) ListConsultants(ctx context.Context, f repo.ConsultantFilter) ([]*repo.User, error) {
	u := pg.Table(usersTable)
	p := pg.Table(profilesTable)
	preds := []*sql.Predicate{sql.EQ(u.C("role"), string(repo.RoleConsultant))}
	if f.Approved != nil {
		preds = append(preds, sql.EQ(p.C("is_approved"), *f.Approved))
	}
	if f.Specialty != "" {
		preds = append(preds, sql.EqualFold(p.C("specialty"), f.Specialty))
	}

	sel := userSelect(u, p).Where(sql.And(preds...)).OrderBy(u.C("name"))
	var out []*repo.User
	err := r.s.query(ctx, page(sel, f.Page), func(rows *sql.Rows) error {
		usr, err := scanUser(rows)
		if err != nil {
			return err
		}
		out = append(out, usr)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list consultants: %w", err)
	}
	return out, nil
}

func (r users) LockConsultant(ctx context.Context, id uuid.UUID) error {
	found, err := r.s.exists(ctx, pg.Select("id").From(pg.Table(usersTable)).
		Where(sql.EQ("id", id)).
		ForUpdate())
	if err != nil {
		return fmt.Errorf("lock consultant: %w", err)
	}
	if !found {
		return repo.ErrNotFound
	}
	return nil
}

func (r users) one(ctx context.Context, where func(u *sql.SelectTable) *sql.Predicate) (*repo.User, error) {
	u := pg.Table(usersTable)
	p := pg.Table(profilesTable)

	var out *repo.User
	err := r.s.query(ctx, userSelect(u, p).Where(where(u)).Limit(1), func(rows *sql.Rows) error {
		usr, err := scanUser(rows)
		out = usr
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if out == nil {
		return nil, repo.ErrNotFound
	}
	return out, nil
}

func userSelect(u, p *sql.SelectTable) *sql.Selector {
	return pg.Select(
		u.C("id"), u.C("email"), u.C("name"), u.C("phone"), u.C("password_hash"), u.C("role"),
		u.C("created_at"), u.C("updated_at"),
		p.C("user_id"), p.C("specialty"), p.C("qualifications"), p.C("bio"), p.C("availability"),
		p.C("is_approved"), p.C("bank_account"), p.C("updated_at"),
	).
		From(u).
		LeftJoin(p).On(u.C("id"), p.C("user_id"))
}

func scanUser(rows *sql.Rows) (*repo.User, error) {
	var (
		u         repo.User
		phone     stdsql.NullString
		role      string
		profileID uuid.NullUUID
		specialty stdsql.NullString
		quals     stdsql.NullString
		bio       stdsql.NullString
		avail     []byte
		approved  stdsql.NullBool
		bank      stdsql.NullString
		pUpdated  stdsql.NullTime
	)
	if err := rows.Scan(
		&u.ID, &u.Email, &u.Name, &phone, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt,
		&profileID, &specialty, &quals, &bio, &avail, &approved, &bank, &pUpdated,
	); err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Phone = stringPtr(phone)
	u.Role = repo.Role(role)

	if profileID.Valid {
		sched, err := availability.Decode(avail)
		if err != nil {
			return nil, fmt.Errorf("decode availability for %s: %w", u.ID, err)
		}
		u.Consultant = &repo.ConsultantProfile{
			Specialty:      specialty.String,
			Qualifications: quals.String,
			Bio:            bio.String,
			Availability:   sched,
			IsApproved:     approved.Bool,
			BankAccount:    stringPtr(bank),
			UpdatedAt:      pUpdated.Time,
		}
	}
	return &u, nil
}
