package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Method string

const (
	MethodClick Method = "click"
	MethodPayme Method = "payme"
	MethodUzum  Method = "uzum"
)

var Methods = []Method{MethodClick, MethodPayme, MethodUzum}

func (m Method) Valid() bool {
	switch m {
	case MethodClick, MethodPayme, MethodUzum:
		return true
	default:
		return false
	}
}

const (
	CardUzcard     = "uzcard"
	CardHumo       = "humo"
	CardVisa       = "visa"
	CardMastercard = "mastercard"
)

func IsValidCardType(card string) bool {
	switch card {
	case CardUzcard, CardHumo, CardVisa, CardMastercard:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Payment is one checkout attempt for an enrollment. Rows are never deleted;
// an enrollment may accumulate several failed or cancelled payments but at
// most one pending payment.
type Payment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_payment_enrollment_pending,where:status = 'pending'" json:"enrollment_id"`

	AmountMinor int64  `gorm:"column:amount_minor;not null" json:"amount_minor"`
	Currency    string `gorm:"column:currency;not null" json:"currency"`
	Method      Method `gorm:"column:payment_method;not null;index" json:"payment_method"`
	CardType    string `gorm:"column:card_type;not null" json:"card_type"`

	Status Status `gorm:"column:status;not null;index" json:"status"`

	// Generated at creation; the reference sent to the provider.
	TransactionID string `gorm:"column:transaction_id;not null;uniqueIndex" json:"transaction_id"`
	// Assigned by the provider; webhooks are keyed by it.
	PaymentID    string `gorm:"column:payment_id;index" json:"payment_id,omitempty"`
	RedirectURL  string `gorm:"column:redirect_url" json:"redirect_url,omitempty"`
	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message,omitempty"`

	ProviderPayload datatypes.JSON `gorm:"column:provider_payload;type:jsonb" json:"-"`

	ResolvedAt *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

func (Payment) TableName() string { return "payment" }
