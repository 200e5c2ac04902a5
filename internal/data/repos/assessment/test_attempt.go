package assessment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainassessment "github.com/shamsacademy/academy-backend/internal/domain/assessment"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type TestAttemptRepo interface {
	Create(dbc dbctx.Context, row *types.TestAttempt) (*types.TestAttempt, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TestAttempt, error)
	GetInProgress(dbc dbctx.Context, testID, studentID uuid.UUID) (*types.TestAttempt, error)
	ListByStudent(dbc dbctx.Context, studentID uuid.UUID, testID uuid.UUID) ([]*types.TestAttempt, error)

	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.TestAttempt, error)

	// ListInProgressTimed returns in-progress attempts on time-limited tests
	// that started before startedBefore and sort after the cursor, ordered
	// by (started_at, id). A zero cursor starts from the beginning.
	ListInProgressTimed(dbc dbctx.Context, after AttemptCursor, startedBefore time.Time, limit int) ([]*types.TestAttempt, error)
}

// AttemptCursor is a keyset position in (started_at, id) order.
type AttemptCursor struct {
	StartedAt time.Time
	ID        uuid.UUID
}

func (c AttemptCursor) IsZero() bool {
	return c.StartedAt.IsZero() && c.ID == uuid.Nil
}

// CursorAfter is the position just past a.
func CursorAfter(a *types.TestAttempt) AttemptCursor {
	return AttemptCursor{StartedAt: a.StartedAt, ID: a.ID}
}

type testAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTestAttemptRepo(db *gorm.DB, baseLog *logger.Logger) TestAttemptRepo {
	return &testAttemptRepo{db: db, log: baseLog.With("repo", "TestAttemptRepo")}
}

func (r *testAttemptRepo) Create(dbc dbctx.Context, row *types.TestAttempt) (*types.TestAttempt, error) {
	if row == nil {
		return nil, nil
	}
	if err := dbc.DB(r.db).Omit("Questions").Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *testAttemptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TestAttempt, error) {
	return r.first(dbc.DB(r.db).Where("id = ?", id), id != uuid.Nil)
}

func (r *testAttemptRepo) GetInProgress(dbc dbctx.Context, testID, studentID uuid.UUID) (*types.TestAttempt, error) {
	q := dbc.DB(r.db).Where("test_id = ? AND student_id = ? AND status = ?", testID, studentID, domainassessment.AttemptInProgress)
	return r.first(q, testID != uuid.Nil && studentID != uuid.Nil)
}

func (r *testAttemptRepo) ListByStudent(dbc dbctx.Context, studentID uuid.UUID, testID uuid.UUID) ([]*types.TestAttempt, error) {
	var out []*types.TestAttempt
	if studentID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).Where("student_id = ?", studentID)
	if testID != uuid.Nil {
		q = q.Where("test_id = ?", testID)
	}
	if err := q.Order("started_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *testAttemptRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.TestAttempt, error) {
	q := dbc.DB(r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	return r.first(q, id != uuid.Nil)
}

func (r *testAttemptRepo) ListInProgressTimed(dbc dbctx.Context, after AttemptCursor, startedBefore time.Time, limit int) ([]*types.TestAttempt, error) {
	var out []*types.TestAttempt
	q := dbc.DB(r.db).
		Model(&types.TestAttempt{}).
		Joins("JOIN test ON test.id = test_attempt.test_id").
		Where("test_attempt.status = ?", domainassessment.AttemptInProgress).
		Where("test.time_limit_minutes IS NOT NULL AND test.time_limit_minutes > 0").
		Where("test_attempt.started_at < ?", startedBefore.UTC()).
		Order("test_attempt.started_at ASC").
		Order("test_attempt.id ASC")
	if !after.IsZero() {
		at := after.StartedAt.UTC()
		q = q.Where("(test_attempt.started_at > ? OR (test_attempt.started_at = ? AND test_attempt.id > ?))", at, at, after.ID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Select("test_attempt.*").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *testAttemptRepo) first(q *gorm.DB, ok bool) (*types.TestAttempt, error) {
	if !ok {
		return nil, nil
	}
	var row types.TestAttempt
	if err := q.Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
