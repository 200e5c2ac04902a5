package billing

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.TransactionID == "" {
		p.TransactionID = uuid.NewString()
	}
	return nil
}
