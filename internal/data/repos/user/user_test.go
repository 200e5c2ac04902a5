package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/data/repos/testutil"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
)

func TestUserRepoUpsertRefreshesRole(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	id := uuid.New()
	if err := repo.Upsert(dbc, &types.User{ID: id, Email: "a@example.com", Role: "student"}); err != nil {
		t.Fatalf("Upsert first: %v", err)
	}
	if err := repo.Upsert(dbc, &types.User{ID: id, Email: "a@example.com", Role: "instructor"}); err != nil {
		t.Fatalf("Upsert second: %v", err)
	}

	got, err := repo.GetByID(dbc, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Role != "instructor" {
		t.Fatalf("role: want=instructor got=%+v", got)
	}
	if got.LastSeenAt == nil {
		t.Fatalf("expected last_seen_at to be set")
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("missing user: want nil,nil got=%v,%v", missing, err)
	}
}
