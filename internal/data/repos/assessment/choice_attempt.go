package assessment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/shamsacademy/academy-backend/internal/domain"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type ChoiceAttemptRepo interface {
	Create(dbc dbctx.Context, rows []*types.ChoiceAttempt) ([]*types.ChoiceAttempt, error)
	ListByQuestionAttempts(dbc dbctx.Context, questionAttemptIDs []uuid.UUID) ([]*types.ChoiceAttempt, error)
}

type choiceAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChoiceAttemptRepo(db *gorm.DB, baseLog *logger.Logger) ChoiceAttemptRepo {
	return &choiceAttemptRepo{db: db, log: baseLog.With("repo", "ChoiceAttemptRepo")}
}

func (r *choiceAttemptRepo) Create(dbc dbctx.Context, rows []*types.ChoiceAttempt) ([]*types.ChoiceAttempt, error) {
	if len(rows) == 0 {
		return []*types.ChoiceAttempt{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *choiceAttemptRepo) ListByQuestionAttempts(dbc dbctx.Context, questionAttemptIDs []uuid.UUID) ([]*types.ChoiceAttempt, error) {
	var out []*types.ChoiceAttempt
	if len(questionAttemptIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("question_attempt_id IN ?", questionAttemptIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
