package aggregates

import (
	"context"
	"testing"

	"github.com/shamsacademy/academy-backend/internal/data/repos/testutil"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	"github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/domain/enrollment"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
)

func TestRequireStatusAllowed(t *testing.T) {
	if err := RequireStatusAllowed("pending", "pending", "failed"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireStatusAllowed("completed", "pending"); err == nil {
		t.Fatalf("expected conflict error")
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCASSuccess(false, "stale"); err == nil {
		t.Fatalf("expected conflict error")
	}
}

func TestCASGuardUpdateByStatusOnlyMovesMatchingRows(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	student := testutil.SeedUser(t, ctx, db, "student")
	course := testutil.SeedCourse(t, ctx, db, student.ID, 5000)
	enr := testutil.SeedEnrollment(t, ctx, db, student.ID, course.ID, enrollment.PaymentPending)

	p := &types.Payment{
		EnrollmentID: enr.ID,
		AmountMinor:  5000,
		Currency:     "UZS",
		Method:       billing.MethodPayme,
		CardType:     billing.CardUzcard,
		Status:       billing.StatusPending,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	g := NewCASGuard(db)
	dbc := dbctx.Context{Ctx: ctx}
	pending := []string{string(billing.StatusPending)}

	ok, err := g.UpdateByStatus(dbc, &types.Payment{}, p.ID, pending, map[string]any{"status": billing.StatusCompleted})
	if err != nil || !ok {
		t.Fatalf("first CAS: want ok got=%v err=%v", ok, err)
	}
	ok, err = g.UpdateByStatus(dbc, &types.Payment{}, p.ID, pending, map[string]any{"status": billing.StatusFailed})
	if err != nil || ok {
		t.Fatalf("second CAS: want no-op got=%v err=%v", ok, err)
	}

	var got types.Payment
	if err := db.First(&got, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != billing.StatusCompleted {
		t.Fatalf("status: want=%s got=%s", billing.StatusCompleted, got.Status)
	}
}
