package assessment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/shamsacademy/academy-backend/internal/domain"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type QuestionAttemptRepo interface {
	Create(dbc dbctx.Context, rows []*types.QuestionAttempt) ([]*types.QuestionAttempt, error)
	ListByAttempt(dbc dbctx.Context, attemptID uuid.UUID) ([]*types.QuestionAttempt, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type questionAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuestionAttemptRepo {
	return &questionAttemptRepo{db: db, log: baseLog.With("repo", "QuestionAttemptRepo")}
}

func (r *questionAttemptRepo) Create(dbc dbctx.Context, rows []*types.QuestionAttempt) ([]*types.QuestionAttempt, error) {
	if len(rows) == 0 {
		return []*types.QuestionAttempt{}, nil
	}
	if err := dbc.DB(r.db).Omit("Choices").Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *questionAttemptRepo) ListByAttempt(dbc dbctx.Context, attemptID uuid.UUID) ([]*types.QuestionAttempt, error) {
	var out []*types.QuestionAttempt
	if attemptID == uuid.Nil {
		return out, nil
	}
	err := dbc.DB(r.db).
		Preload("Choices").
		Where("test_attempt_id = ?", attemptID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionAttemptRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).Model(&types.QuestionAttempt{}).Where("id = ?", id).Updates(updates).Error
}
