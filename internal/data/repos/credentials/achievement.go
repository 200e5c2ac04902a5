package credentials

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/shamsacademy/academy-backend/internal/domain"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type AchievementRepo interface {
	Create(dbc dbctx.Context, rows []*types.Achievement) ([]*types.Achievement, error)
	ListBySourceAttempt(dbc dbctx.Context, studentID, attemptID uuid.UUID) ([]*types.Achievement, error)
	// ListActiveByStudent skips deactivated rows and rows past ExpiresAt.
	ListActiveByStudent(dbc dbctx.Context, studentID uuid.UUID, now time.Time) ([]*types.Achievement, error)
}

type achievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	return &achievementRepo{db: db, log: baseLog.With("repo", "AchievementRepo")}
}

func (r *achievementRepo) Create(dbc dbctx.Context, rows []*types.Achievement) ([]*types.Achievement, error) {
	if len(rows) == 0 {
		return []*types.Achievement{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *achievementRepo) ListBySourceAttempt(dbc dbctx.Context, studentID, attemptID uuid.UUID) ([]*types.Achievement, error) {
	var out []*types.Achievement
	if studentID == uuid.Nil || attemptID == uuid.Nil {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("student_id = ? AND source_attempt_id = ?", studentID, attemptID).
		Order("earned_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *achievementRepo) ListActiveByStudent(dbc dbctx.Context, studentID uuid.UUID, now time.Time) ([]*types.Achievement, error) {
	var out []*types.Achievement
	if studentID == uuid.Nil {
		return out, nil
	}
	if now.IsZero() {
		now = time.Now()
	}
	err := dbc.DB(r.db).
		Where("student_id = ? AND is_active = ?", studentID, true).
		Where("expires_at IS NULL OR expires_at > ?", now.UTC()).
		Order("earned_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
