package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainbilling "github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type PaymentRepo interface {
	Create(dbc dbctx.Context, row *types.Payment) (*types.Payment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Payment, error)
	GetByExternalID(dbc dbctx.Context, method domainbilling.Method, externalID string) (*types.Payment, error)
	GetByTransactionID(dbc dbctx.Context, transactionID string) (*types.Payment, error)
	GetPendingByEnrollment(dbc dbctx.Context, enrollmentID uuid.UUID) (*types.Payment, error)
	ListByEnrollment(dbc dbctx.Context, enrollmentID uuid.UUID) ([]*types.Payment, error)

	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Payment, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type paymentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRepo {
	return &paymentRepo{db: db, log: baseLog.With("repo", "PaymentRepo")}
}

func (r *paymentRepo) Create(dbc dbctx.Context, row *types.Payment) (*types.Payment, error) {
	if row == nil {
		return nil, nil
	}
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *paymentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Payment, error) {
	return r.first(dbc.DB(r.db).Where("id = ?", id), id != uuid.Nil)
}

func (r *paymentRepo) GetByExternalID(dbc dbctx.Context, method domainbilling.Method, externalID string) (*types.Payment, error) {
	q := dbc.DB(r.db).Where("payment_id = ?", externalID)
	if method != "" {
		q = q.Where("payment_method = ?", method)
	}
	return r.first(q.Order("created_at DESC"), externalID != "")
}

func (r *paymentRepo) GetByTransactionID(dbc dbctx.Context, transactionID string) (*types.Payment, error) {
	return r.first(dbc.DB(r.db).Where("transaction_id = ?", transactionID), transactionID != "")
}

func (r *paymentRepo) GetPendingByEnrollment(dbc dbctx.Context, enrollmentID uuid.UUID) (*types.Payment, error) {
	q := dbc.DB(r.db).Where("enrollment_id = ? AND status = ?", enrollmentID, domainbilling.StatusPending)
	return r.first(q, enrollmentID != uuid.Nil)
}

func (r *paymentRepo) ListByEnrollment(dbc dbctx.Context, enrollmentID uuid.UUID) ([]*types.Payment, error) {
	var out []*types.Payment
	if enrollmentID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("enrollment_id = ?", enrollmentID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *paymentRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Payment, error) {
	q := dbc.DB(r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	return r.first(q, id != uuid.Nil)
}

func (r *paymentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).Model(&types.Payment{}).Where("id = ?", id).Updates(updates).Error
}

func (r *paymentRepo) first(q *gorm.DB, ok bool) (*types.Payment, error) {
	if !ok {
		return nil, nil
	}
	var row types.Payment
	if err := q.Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
