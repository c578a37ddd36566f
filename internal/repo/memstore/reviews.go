package memstore

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
)

type reviews struct{ v *view }

func (r reviews) Create(_ context.Context, rv *repo.Review) error {
	return r.v.write("reviews.create", func(db *state) error {
		db.reviews = append(db.reviews, *rv)
		return nil
	})
}

func (r reviews) ListByConsultant(_ context.Context, consultantID uuid.UUID, page repo.Page) ([]*repo.Review, error) {
	var out []*repo.Review
	err := r.v.read(func(db *state) error {
		for _, rv := range db.reviews {
			if rv.ConsultantID == consultantID {
				out = append(out, &rv)
			}
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b *repo.Review) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return paginate(out, page), err
}

func (r reviews) Stats(_ context.Context, consultantID uuid.UUID) (repo.ReviewStats, error) {
	var st repo.ReviewStats
	err := r.v.read(func(db *state) error {
		sum := 0
		for _, rv := range db.reviews {
			if rv.ConsultantID == consultantID {
				st.Count++
				sum += rv.Rating
			}
		}
		if st.Count > 0 {
			st.Average = float64(sum) / float64(st.Count)
		}
		return nil
	})
	return st, err
}

type records struct{ v *view }

func (r records) Create(_ context.Context, hr *repo.HealthRecord) error {
	return r.v.write("health_records.create", func(db *state) error {
		db.records = append(db.records, *hr)
		return nil
	})
}

func (r records) ListByUser(_ context.Context, userID uuid.UUID, page repo.Page) ([]*repo.HealthRecord, error) {
	var out []*repo.HealthRecord
	err := r.v.read(func(db *state) error {
		for _, hr := range db.records {
			if hr.UserID == userID {
				out = append(out, &hr)
			}
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b *repo.HealthRecord) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return paginate(out, page), err
}

type auditLogs struct{ v *view }

func (r auditLogs) Create(_ context.Context, e *repo.AuditLog) error {
	return r.v.write("audit_logs.create", func(db *state) error {
		db.audit = append(db.audit, *e)
		return nil
	})
}

func (r auditLogs) List(_ context.Context, f repo.AuditFilter) ([]*repo.AuditLog, error) {
	var out []*repo.AuditLog
	err := r.v.read(func(db *state) error {
		for _, e := range db.audit {
			if f.ActorID != nil && e.ActorID != *f.ActorID {
				continue
			}
			if f.Entity != "" && e.Entity != f.Entity {
				continue
			}
			if f.EntityID != nil && e.EntityID != *f.EntityID {
				continue
			}
			if f.Since != nil && e.At.Before(*f.Since) {
				continue
			}
			out = append(out, &e)
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b *repo.AuditLog) int { return b.At.Compare(a.At) })
	return paginate(out, f.Page), err
}
