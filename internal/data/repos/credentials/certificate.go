package credentials

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/shamsacademy/academy-backend/internal/domain"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type CertificateRepo interface {
	Create(dbc dbctx.Context, row *types.Certificate) (*types.Certificate, error)
	GetByAttempt(dbc dbctx.Context, attemptID uuid.UUID) (*types.Certificate, error)
	GetByCertificateID(dbc dbctx.Context, certificateID string) (*types.Certificate, error)
	ListByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Certificate, error)
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return &certificateRepo{db: db, log: baseLog.With("repo", "CertificateRepo")}
}

func (r *certificateRepo) Create(dbc dbctx.Context, row *types.Certificate) (*types.Certificate, error) {
	if row == nil {
		return nil, nil
	}
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *certificateRepo) GetByAttempt(dbc dbctx.Context, attemptID uuid.UUID) (*types.Certificate, error) {
	if attemptID == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("test_attempt_id = ?", attemptID))
}

func (r *certificateRepo) GetByCertificateID(dbc dbctx.Context, certificateID string) (*types.Certificate, error) {
	if certificateID == "" {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("certificate_id = ?", certificateID))
}

func (r *certificateRepo) ListByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Certificate, error) {
	var out []*types.Certificate
	if studentID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("student_id = ?", studentID).Order("issued_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *certificateRepo) first(q *gorm.DB) (*types.Certificate, error) {
	var row types.Certificate
	if err := q.Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
