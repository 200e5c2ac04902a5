package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/shamsacademy/academy-backend/internal/domain"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type TestRepo interface {
	// Create persists a test together with its questions and choices.
	Create(dbc dbctx.Context, row *types.Test) (*types.Test, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Test, error)
	// GetWithQuestions loads questions ordered by sort_order, each with
	// its choices ordered the same way.
	GetWithQuestions(dbc dbctx.Context, id uuid.UUID) (*types.Test, error)
	GetByCourseAndTitle(dbc dbctx.Context, courseID uuid.UUID, title string) (*types.Test, error)
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Test, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Test, error)
}

type testRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTestRepo(db *gorm.DB, baseLog *logger.Logger) TestRepo {
	return &testRepo{db: db, log: baseLog.With("repo", "TestRepo")}
}

func (r *testRepo) Create(dbc dbctx.Context, row *types.Test) (*types.Test, error) {
	if row == nil {
		return nil, nil
	}
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *testRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Test, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *testRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Test, error) {
	var out []*types.Test
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *testRepo) GetWithQuestions(dbc dbctx.Context, id uuid.UUID) (*types.Test, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Test
	err := dbc.DB(r.db).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		}).
		Preload("Questions.Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *testRepo) GetByCourseAndTitle(dbc dbctx.Context, courseID uuid.UUID, title string) (*types.Test, error) {
	var row types.Test
	if err := dbc.DB(r.db).Where("course_id = ? AND title = ?", courseID, title).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *testRepo) ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Test, error) {
	var out []*types.Test
	if courseID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("course_id = ?", courseID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
