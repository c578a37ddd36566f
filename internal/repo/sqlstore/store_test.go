package sqlstore

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
)

func TestMapErr(t *testing.T) {
	unique := fmt.Errorf("exec: %w", &pq.Error{Code: pgUniqueViolation, Constraint: "users_email_key"})
	if err := mapErr(unique); !errors.Is(err, repo.ErrConflict) {
		t.Errorf("unique violation mapped to %v", err)
	}

	other := &pq.Error{Code: "23503"}
	if err := mapErr(other); errors.Is(err, repo.ErrConflict) {
		t.Error("foreign key violation must not read as a conflict")
	}
}

func TestAcceptedSlotIndex(t *testing.T) {
	found := false
	for _, i := range BookingsTable.Indexes {
		if !i.Unique {
			continue
		}
		if i.Annotation == nil || i.Annotation.Where != "status = 'accepted'" {
			t.Fatalf("unique booking index %s lacks the accepted predicate", i.Name)
		}
		names := make([]string, len(i.Columns))
		for n, c := range i.Columns {
			names[n] = c.Name
		}
		if got := strings.Join(names, ","); got != "consultant_id,date,time_slot" {
			t.Errorf("index columns = %s", got)
		}
		found = true
	}
	if !found {
		t.Fatal("bookings has no unique slot index")
	}
}

func TestForeignKeysResolved(t *testing.T) {
	for _, tbl := range Tables {
		for _, fk := range tbl.ForeignKeys {
			if fk.RefTable == nil {
				t.Errorf("%s.%s has no RefTable", tbl.Name, fk.Symbol)
			}
		}
	}
}

func TestSlotQueryShape(t *testing.T) {
	q, args := pg.Select("id").From(pg.Table(bookingsTable)).Where(sql.And(
		sql.EQ("consultant_id", "c"),
		sql.EQ("date", "2025-01-06"),
		sql.EQ("time_slot", "09:00-10:00"),
	)).Limit(1).Query()

	if !strings.Contains(q, `"consultant_id" = $1`) || !strings.Contains(q, "LIMIT 1") {
		t.Errorf("unexpected query %s", q)
	}
	if len(args) != 3 {
		t.Errorf("args = %v", args)
	}
}

func TestProfileUpsertKeepsApproval(t *testing.T) {
	q, args := profileUpsert(uuid.New(), &repo.ConsultantProfile{Specialty: "nutrition"}, "{}", time.Now()).Query()

	if !strings.Contains(q, "ON CONFLICT") || !strings.Contains(q, "DO UPDATE SET") {
		t.Fatalf("missing upsert clause: %s", q)
	}
	set := q[strings.Index(q, "DO UPDATE SET"):]
	if strings.Contains(set, "is_approved") {
		t.Errorf("upsert overwrites approval: %s", set)
	}
	for _, col := range []string{"specialty", "availability", "bank_account", "updated_at"} {
		if !strings.Contains(set, `"excluded"."`+col+`"`) {
			t.Errorf("column %s not updated: %s", col, set)
		}
	}
	if len(args) != 8 {
		t.Errorf("args = %v", args)
	}
}
