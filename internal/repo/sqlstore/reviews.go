package sqlstore

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"fmt"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
)

const (
	reviewsTable       = "reviews"
	healthRecordsTable = "health_records"
	auditLogsTable     = "audit_logs"
)

type reviews struct{ s *Store }

func (r reviews) Create(ctx context.Context, rv *repo.Review) error {
	_, err := r.s.exec(ctx, pg.Insert(reviewsTable).
		Columns("id", "user_id", "consultant_id", "rating", "text", "created_at").
		Values(rv.ID, rv.UserID, rv.ConsultantID, rv.Rating, rv.Text, rv.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r reviews) ListByConsultant(ctx context.Context, consultantID uuid.UUID, p repo.Page) ([]*repo.Review, error) {
	sel := pg.Select("id", "user_id", "consultant_id", "rating", "text", "created_at").
		From(pg.Table(reviewsTable)).
		Where(sql.EQ("consultant_id", consultantID)).
		OrderBy(sql.Desc("created_at"))

	var out []*repo.Review
	err := r.s.query(ctx, page(sel, p), func(rows *sql.Rows) error {
		var rv repo.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.ConsultantID, &rv.Rating, &rv.Text, &rv.CreatedAt); err != nil {
			return fmt.Errorf("scan review: %w", err)
		}
		out = append(out, &rv)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

func (r reviews) Stats(ctx context.Context, consultantID uuid.UUID) (repo.ReviewStats, error) {
	sel := pg.Select("COUNT(*)", "COALESCE(AVG(rating), 0)").
		From(pg.Table(reviewsTable)).
		Where(sql.EQ("consultant_id", consultantID))

	var st repo.ReviewStats
	err := r.s.query(ctx, sel, func(rows *sql.Rows) error {
		return rows.Scan(&st.Count, &st.Average)
	})
	if err != nil {
		return repo.ReviewStats{}, fmt.Errorf("review stats: %w", err)
	}
	return st, nil
}

type records struct{ s *Store }

func (r records) Create(ctx context.Context, hr *repo.HealthRecord) error {
	_, err := r.s.exec(ctx, pg.Insert(healthRecordsTable).
		Columns("id", "user_id", "kind", "content", "attachment_key", "created_at").
		Values(hr.ID, hr.UserID, string(hr.Kind), hr.Content, nullString(hr.AttachmentKey), hr.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert health record: %w", err)
	}
	return nil
}

func (r records) ListByUser(ctx context.Context, userID uuid.UUID, p repo.Page) ([]*repo.HealthRecord, error) {
	sel := pg.Select("id", "user_id", "kind", "content", "attachment_key", "created_at").
		From(pg.Table(healthRecordsTable)).
		Where(sql.EQ("user_id", userID)).
		OrderBy(sql.Desc("created_at"))

	var out []*repo.HealthRecord
	err := r.s.query(ctx, page(sel, p), func(rows *sql.Rows) error {
		var (
			hr   repo.HealthRecord
			kind string
			key  stdsql.NullString
		)
		if err := rows.Scan(&hr.ID, &hr.UserID, &kind, &hr.Content, &key, &hr.CreatedAt); err != nil {
			return fmt.Errorf("scan health record: %w", err)
		}
		hr.Kind = repo.RecordKind(kind)
		hr.AttachmentKey = stringPtr(key)
		out = append(out, &hr)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list health records: %w", err)
	}
	return out, nil
}

type auditLogs struct{ s *Store }

func (r auditLogs) Create(ctx context.Context, e *repo.AuditLog) error {
	var details any
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
		details = string(raw)
	}
	_, err := r.s.exec(ctx, pg.Insert(auditLogsTable).
		Columns("id", "actor_id", "action", "entity", "entity_id", "details", "at").
		Values(e.ID, e.ActorID, e.Action, e.Entity, e.EntityID, details, e.At))
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r auditLogs) List(ctx context.Context, f repo.AuditFilter) ([]*repo.AuditLog, error) {
	var preds []*sql.Predicate
	if f.ActorID != nil {
		preds = append(preds, sql.EQ("actor_id", *f.ActorID))
	}
	if f.Entity != "" {
		preds = append(preds, sql.EQ("entity", f.Entity))
	}
	if f.EntityID != nil {
		preds = append(preds, sql.EQ("entity_id", *f.EntityID))
	}
	if f.Since != nil {
		preds = append(preds, sql.GTE("at", *f.Since))
	}

	sel := pg.Select("id", "actor_id", "action", "entity", "entity_id", "details", "at").From(pg.Table(auditLogsTable))
	if len(preds) > 0 {
		sel = sel.Where(sql.And(preds...))
	}
	sel = page(sel.OrderBy(sql.Desc("at")), f.Page)

	var out []*repo.AuditLog
	err := r.s.query(ctx, sel, func(rows *sql.Rows) error {
		var (
			e   repo.AuditLog
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &raw, &e.At); err != nil {
			return fmt.Errorf("scan audit log: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Details); err != nil {
				return fmt.Errorf("decode audit details: %w", err)
			}
		}
		out = append(out, &e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return out, nil
}
